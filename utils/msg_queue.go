package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/pkg/errors"
)

// MessageQueueMessage is one raw message pulled off a queue.
type MessageQueueMessage interface {
	Read() (string, error)
}

// MessageQueueReader pulls batches of messages from a queue. The interaction
// ingester reads client interaction events through this interface so tests
// can inject a fake reader.
type MessageQueueReader interface {
	ReceiveMessages(maxNumberOfMessages int64) ([]MessageQueueMessage, error)
	DeleteMessage(msg MessageQueueMessage) error
}

type SQSMessageQueueReader struct {
	readTimeout int64
	queueName   string
	url         string
	client      *sqs.SQS
}

type SQSMessageQueueMessage struct {
	Message       *string
	MessageId     *string
	ReceivedTimes int
	SentTimeStamp int
	ReceiptHandle string
}

func (msg *SQSMessageQueueMessage) Read() (string, error) {
	if msg.Message == nil {
		return "", errors.New("empty message body")
	}
	return *msg.Message, nil
}

// NewSQSMessageQueueReader resolves the queue url once up front. Credentials
// come from the shared aws config (~/.aws/credentials or instance role).
func NewSQSMessageQueueReader(queueName string, readTimeout int64) (*SQSMessageQueueReader, error) {
	if queueName == "" {
		return nil, errors.New("please specify queue name")
	}

	if readTimeout < 0 || readTimeout > 20 {
		return nil, errors.New("readTimeout should be >= 0 and <= 20")
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	client := sqs.New(sess)

	url, err := client.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: &queueName,
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == sqs.ErrCodeQueueDoesNotExist {
			return nil, errors.Errorf("unable to find queue %q", queueName)
		}
		return nil, errors.Wrapf(err, "unable to resolve queue %q", queueName)
	}

	return &SQSMessageQueueReader{
		queueName:   queueName,
		url:         *url.QueueUrl,
		readTimeout: readTimeout,
		client:      client,
	}, nil
}

func (reader *SQSMessageQueueReader) ReceiveMessages(maxNumberOfMessages int64) ([]MessageQueueMessage, error) {
	if maxNumberOfMessages < 1 || maxNumberOfMessages > 10 {
		return nil, errors.New("maxNumberOfMessages should be >= 1 and <= 10")
	}

	result, err := reader.client.ReceiveMessage(&sqs.ReceiveMessageInput{
		QueueUrl: &reader.url,
		AttributeNames: aws.StringSlice([]string{
			"SentTimestamp",
			"ApproximateReceiveCount",
		}),
		MaxNumberOfMessages: aws.Int64(maxNumberOfMessages),
		MessageAttributeNames: aws.StringSlice([]string{
			"All",
		}),
		WaitTimeSeconds: &reader.readTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read from queue %q", reader.queueName)
	}

	res := []MessageQueueMessage{}
	for _, msg := range result.Messages {
		var count, sentTime int
		if val, ok := msg.Attributes["ApproximateReceiveCount"]; ok {
			count, _ = strconv.Atoi(*val)
		}
		if val, ok := msg.Attributes["SentTimestamp"]; ok {
			sentTime, _ = strconv.Atoi(*val)
		}

		res = append(res, &SQSMessageQueueMessage{
			Message:       msg.Body,
			MessageId:     msg.MessageId,
			ReceivedTimes: count,
			SentTimeStamp: sentTime,
			ReceiptHandle: *msg.ReceiptHandle,
		})
	}

	return res, nil
}

func (reader *SQSMessageQueueReader) DeleteMessage(msg MessageQueueMessage) error {
	sqsMsg, ok := msg.(*SQSMessageQueueMessage)
	if !ok {
		return errors.New("message is not an SQS message")
	}

	_, err := reader.client.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      &reader.url,
		ReceiptHandle: &sqsMsg.ReceiptHandle,
	})
	return errors.Wrap(err, "fail to delete message")
}
