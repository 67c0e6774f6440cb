// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

/*
The altotxt package contains tools and functions to turn a book of ALTO
OCR files into plain text, with one sentence on each line. It is useful
for getting text out of the archives provided by many digitisation
projects, which typically supply a zip file containing one ALTO XML file
for each page.

Introduction

Presuming you have the go tools installed, you can install altotxt and
its companion tools with this command:
  go install rescribe.xyz/altotxt/cmd/...

All of the tools will give information on what they do and how they
work with the '-h' flag, so for example to get usage information on the
altotxt tool simply run the following:
  altotxt -h

Converting a book

The altotxt command takes a zip file of ALTO (or hOCR) pages, and writes
a text file named after the zip file into the output folder:
  altotxt -output-folder texts ExcellentBook.zip

This will create texts/ExcellentBook.txt. The pages are extracted into a
temporary folder inside the output folder, which is removed once the
text has been saved, unless the -keep flag is given.

Words which were split across lines are joined back together: OCR engines
mark the first part of such words with the '¬' character, which is
removed when the parts are joined. The text is then split into sentences
at every word which ends with a full stop.

A PDF of the text can also be created with the -pdf flag, and a graph of
the number of words on each page with the -graph flag, which is handy to
spot pages which were missed or poorly recognised.

Running with -gui will start a simple graphical interface.

Using cloud storage

The archive can be given as an s3:// URL, in which case it is downloaded
first, and the results can be sent to S3 with the -upload flag, like so:
  altotxt -upload s3://mybucket/texts s3://mybucket/books/ExcellentBook.zip

For larger batches the altotxtd command watches a queue for the storage
keys of archives to convert, uploading the results next to each archive.
Archives can be added to the queue with the addtoqueue tool:
  addtoqueue books/ExcellentBook.zip

Once converted, the results can be fetched with getresults, and removed
from storage with rmresults.

S3 and SQS are used when the storage setting is aws; otherwise a local
folder stands in for both, which is handy for testing.

Configuration

Settings can be put in ~/.config/altotxt/config.yaml, or any file given
with the -config flag, and overridden by ALTOTXT_* environment variables
(which can also be set in a .env file). For example:
  workers: 8
  namespaces:
    - http://www.loc.gov/standards/alto/ns-v3#
  storage: aws
  region: eu-west-2
  bucket: mybucket
  queue: altotxt
*/
package altotxt
