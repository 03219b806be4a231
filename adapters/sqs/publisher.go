// Package sqs delivers queued rows to an Amazon SQS queue, for sites where a
// downstream worker owns the spreadsheet writes.
package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	sheetqueue "github.com/ideamans/go-sheetqueue"
)

// SQSAPI is the subset of the SQS client the publisher uses
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

var _ sheetqueue.Appender = (*Publisher)(nil)

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(client SQSAPI, queueURL string) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("sqs client is required")
	}
	if queueURL == "" {
		return nil, errors.New("queue url is required")
	}
	return &Publisher{
		SQS:      client,
		QueueURL: queueURL,
	}, nil
}

// LoadAWSConfig loads the default AWS config, falling back to us-east-1
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1" // default fallback
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewClient builds an SQS client from cfg. AWS_ENDPOINT_OVERRIDE points it at
// a local emulator.
func NewClient(cfg sdkaws.Config) *sqs.Client {
	endpoint := os.Getenv("AWS_ENDPOINT_OVERRIDE")
	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = sdkaws.String(endpoint)
		}
	})
}

// Append sends req as a JSON message tagged with its action and sheet name
func (p *Publisher) Append(ctx context.Context, req sheetqueue.AppendRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(p.QueueURL),
		MessageBody: sdkaws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"action":    stringAttribute(req.Action),
			"sheetName": stringAttribute(req.SheetName),
		},
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func stringAttribute(v string) sqstypes.MessageAttributeValue {
	return sqstypes.MessageAttributeValue{
		DataType:    sdkaws.String("String"),
		StringValue: sdkaws.String(v),
	}
}
