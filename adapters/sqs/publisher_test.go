package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sheetqueue "github.com/ideamans/go-sheetqueue"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	id := "msg-1"
	return &sqs.SendMessageOutput{MessageId: &id}, nil
}

func TestPublisher_Append(t *testing.T) {
	mock := &mockSQS{}
	publisher, err := NewPublisher(mock, "https://sqs.us-east-1.amazonaws.com/123/rows")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}

	req := sheetqueue.AppendRequest{
		Action:    sheetqueue.ActionAppend,
		SheetName: "Abastecimento",
		RowData:   []string{"10/01/2026", "CT-07", "120,5"},
	}
	if err := publisher.Append(context.Background(), req); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if len(mock.inputs) != 1 {
		t.Fatalf("SendMessage calls = %d, want 1", len(mock.inputs))
	}
	input := mock.inputs[0]

	if *input.QueueUrl != "https://sqs.us-east-1.amazonaws.com/123/rows" {
		t.Errorf("QueueUrl = %s", *input.QueueUrl)
	}

	var body sheetqueue.AppendRequest
	if err := json.Unmarshal([]byte(*input.MessageBody), &body); err != nil {
		t.Fatalf("message body is not JSON: %v", err)
	}
	if body.SheetName != "Abastecimento" || len(body.RowData) != 3 || body.RowData[2] != "120,5" {
		t.Errorf("message body = %+v", body)
	}

	for name, want := range map[string]string{"action": "append", "sheetName": "Abastecimento"} {
		attr, ok := input.MessageAttributes[name]
		if !ok {
			t.Errorf("attribute %s missing", name)
			continue
		}
		if *attr.DataType != "String" || *attr.StringValue != want {
			t.Errorf("attribute %s = %s/%s, want String/%s", name, *attr.DataType, *attr.StringValue, want)
		}
	}
}

func TestPublisher_AppendError(t *testing.T) {
	sendErr := errors.New("throttled")
	publisher, _ := NewPublisher(&mockSQS{err: sendErr}, "queue")

	err := publisher.Append(context.Background(), sheetqueue.AppendRequest{SheetName: "Carga"})
	if !errors.Is(err, sendErr) {
		t.Errorf("Append() error = %v, want %v", err, sendErr)
	}
}

func TestNewPublisher_Validation(t *testing.T) {
	if _, err := NewPublisher(nil, "queue"); err == nil {
		t.Error("NewPublisher(nil client) expected error")
	}
	if _, err := NewPublisher(&mockSQS{}, ""); err == nil {
		t.Error("NewPublisher(empty url) expected error")
	}
}

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "us-east-1" {
		t.Fatalf("expected default region 'us-east-1', got %s", cfg.Region)
	}
}

func TestNewClient_EndpointOverride(t *testing.T) {
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("AWS_ENDPOINT_OVERRIDE", "http://localhost:4566")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client := NewClient(cfg)
	opts := client.Options()
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:4566" {
		t.Errorf("BaseEndpoint = %v, want override", opts.BaseEndpoint)
	}
	if opts.Region != "sa-east-1" {
		t.Errorf("Region = %s, want sa-east-1", opts.Region)
	}
}
