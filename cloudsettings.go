// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

// This file contains the default cloud names; they can be overridden
// with the bucket and queue settings in the config file.

// Queue names
const (
	queueConvert = "rescribealtotxt"
)

// Storage bucket names
const (
	storageWip = "rescribealtotxt"
)
