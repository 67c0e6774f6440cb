// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/rs/zerolog"
)

const defaultAwsRegion = `eu-west-2`

type Qmsg struct {
	Id, Handle, Body string
}

// AwsConn contains the necessary things to interact with S3 and SQS
// in ways useful for the altotxt package. It is designed to be
// generic enough to swap in other backends easily (see LocalConn).
type AwsConn struct {
	// these should be set before running Init(), or left to defaults
	Region    string
	Bucket    string
	QueueName string
	Logger    zerolog.Logger

	sess         *session.Session
	s3svc        *s3.S3
	sqssvc       *sqs.SQS
	downloader   *s3manager.Downloader
	uploader     *s3manager.Uploader
	convertqurl  string
	wipstorageid string
}

// MinimalInit does the bare minimum to initialise aws services,
// which is enough for storage operations.
func (a *AwsConn) MinimalInit() error {
	if a.Region == "" {
		a.Region = defaultAwsRegion
	}
	if a.Bucket == "" {
		a.Bucket = storageWip
	}

	var err error
	a.sess, err = session.NewSession(&aws.Config{
		Region: aws.String(a.Region),
	})
	if err != nil {
		return fmt.Errorf("Failed to set up aws session: %w", err)
	}
	a.s3svc = s3.New(a.sess)
	a.sqssvc = sqs.New(a.sess)
	a.downloader = s3manager.NewDownloader(a.sess)
	a.uploader = s3manager.NewUploader(a.sess)

	a.wipstorageid = a.Bucket

	return nil
}

// Init initialises aws services, also finding the url needed to
// address the conversion queue directly.
func (a *AwsConn) Init() error {
	err := a.MinimalInit()
	if err != nil {
		return err
	}
	if a.QueueName == "" {
		a.QueueName = queueConvert
	}

	a.Logger.Debug().Str("queue", a.QueueName).Msg("Getting convert queue URL")
	result, err := a.sqssvc.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: aws.String(a.QueueName),
	})
	if err != nil {
		return fmt.Errorf("Error getting convert queue URL: %w", err)
	}
	a.convertqurl = *result.QueueUrl

	return nil
}

func (a *AwsConn) CheckQueue(url string, timeout int64) (Qmsg, error) {
	msgResult, err := a.sqssvc.ReceiveMessage(&sqs.ReceiveMessageInput{
		MaxNumberOfMessages: aws.Int64(1),
		VisibilityTimeout:   &timeout,
		WaitTimeSeconds:     aws.Int64(20),
		QueueUrl:            &url,
	})
	if err != nil {
		return Qmsg{}, err
	}

	if len(msgResult.Messages) == 0 {
		return Qmsg{}, nil
	}
	msg := Qmsg{Id: *msgResult.Messages[0].MessageId,
		Handle: *msgResult.Messages[0].ReceiptHandle,
		Body:   *msgResult.Messages[0].Body}
	a.Logger.Debug().Str("body", msg.Body).Msg("Message received")
	return msg, nil
}

// QueueHeartbeat updates the visibility timeout of a message. This
// ensures that the message remains "in flight", meaning that it
// cannot be seen by other processes, but if this process fails the
// timeout will expire and it will go back to being available for
// any other process to retrieve and process.
//
// SQS only allows messages to be "in flight" for up to 12 hours, so
// this will detect if the request for an update to visibility timeout
// fails, and if so will attempt to find the message on the queue, and
// return it, as the handle will have changed.
func (a *AwsConn) QueueHeartbeat(msg Qmsg, qurl string, duration int64) (Qmsg, error) {
	_, err := a.sqssvc.ChangeMessageVisibility(&sqs.ChangeMessageVisibilityInput{
		ReceiptHandle:     &msg.Handle,
		QueueUrl:          &qurl,
		VisibilityTimeout: &duration,
	})
	if err == nil {
		return Qmsg{}, nil
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != "InvalidParameterValue" {
		return Qmsg{}, fmt.Errorf("Heartbeat error updating queue duration: %w", err)
	}

	// The visibility timeout has exceeded the maximum allowed, so
	// make the message available again and find it to get a new handle.
	_, _ = a.sqssvc.ChangeMessageVisibility(&sqs.ChangeMessageVisibilityInput{
		ReceiptHandle:     &msg.Handle,
		QueueUrl:          &qurl,
		VisibilityTimeout: aws.Int64(0),
	})

	for i := 0; i < int(duration)*5; i++ {
		msgResult, err := a.sqssvc.ReceiveMessage(&sqs.ReceiveMessageInput{
			MaxNumberOfMessages: aws.Int64(10),
			VisibilityTimeout:   &duration,
			WaitTimeSeconds:     aws.Int64(1),
			QueueUrl:            &qurl,
		})
		if err != nil {
			return Qmsg{}, fmt.Errorf("Heartbeat error looking for message to update heartbeat: %w", err)
		}
		for _, m := range msgResult.Messages {
			if *m.MessageId == msg.Id {
				return Qmsg{
					Id:     *m.MessageId,
					Handle: *m.ReceiptHandle,
					Body:   *m.Body,
				}, nil
			}
		}
		// WaitTimeSeconds only applies when no messages came back
		if len(msgResult.Messages) > 0 {
			time.Sleep(time.Second)
		}
	}
	return Qmsg{}, errors.New("Heartbeat error failed to find message to update heartbeat")
}

func (a *AwsConn) ConvertQueueId() string {
	return a.convertqurl
}

func (a *AwsConn) WIPStorageId() string {
	return a.wipstorageid
}

func (a *AwsConn) ListObjects(bucket string, prefix string) ([]string, error) {
	var names []string
	err := a.s3svc.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, r := range page.Contents {
			names = append(names, *r.Key)
		}
		return true
	})
	return names, err
}

// DeleteObjects deletes a list of objects
func (a *AwsConn) DeleteObjects(bucket string, keys []string) error {
	objs := []*s3.ObjectIdentifier{}
	for _, v := range keys {
		objs = append(objs, &s3.ObjectIdentifier{Key: aws.String(v)})
	}
	_, err := a.s3svc.DeleteObjects(&s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3.Delete{
			Objects: objs,
			Quiet:   aws.Bool(true),
		},
	})
	return err
}

func (a *AwsConn) AddToQueue(url string, msg string) error {
	_, err := a.sqssvc.SendMessage(&sqs.SendMessageInput{
		MessageBody: &msg,
		QueueUrl:    &url,
	})
	return err
}

func (a *AwsConn) DelFromQueue(url string, handle string) error {
	_, err := a.sqssvc.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      &url,
		ReceiptHandle: &handle,
	})
	return err
}

func (a *AwsConn) Download(bucket string, key string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = a.downloader.Download(f,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    &key,
		})
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func (a *AwsConn) Upload(bucket string, key string, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = a.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	return err
}

func (a *AwsConn) GetLogger() zerolog.Logger {
	return a.Logger
}

// Log records an item with the Logger. Arguments are handled
// as with fmt.Println.
func (a *AwsConn) Log(v ...interface{}) {
	a.Logger.Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}
