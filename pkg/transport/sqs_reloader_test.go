package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testQueue = "https://sqs.us-east-1.amazonaws.com/123/reload-queue"

// --- Mocks ---

type MockSQSClient struct {
	mock.Mock
}

func (m *MockSQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockSQSClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	return nil, args.Error(1)
}

type MockReloader struct {
	mu    sync.Mutex
	calls int
	Err   error
}

func (m *MockReloader) Reload(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Err
}

func (m *MockReloader) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func runFor(r *SQSReloader, d time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	time.Sleep(d)
	cancel()
	<-done
}

// --- Tests ---

func TestSQSReloader_ReloadsAndDeletesBatch(t *testing.T) {
	mockSQS := new(MockSQSClient)
	reloader := &MockReloader{}

	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{
		Messages: []types.Message{
			{Body: aws.String(`{"action":"reload"}`), ReceiptHandle: aws.String("handle_1")},
			{Body: aws.String(`{"action":"reload"}`), ReceiptHandle: aws.String("handle_2")},
		},
	}, nil).Once()
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{}, nil).Maybe()
	mockSQS.On("DeleteMessage", mock.Anything, mock.Anything).Return(nil, nil)

	runFor(NewSQSReloader(mockSQS, testQueue, reloader), 100*time.Millisecond)

	assert.Equal(t, 1, reloader.Calls(), "one reload per batch")
	for _, h := range []string{"handle_1", "handle_2"} {
		mockSQS.AssertCalled(t, "DeleteMessage", mock.Anything, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(testQueue),
			ReceiptHandle: aws.String(h),
		})
	}
}

func TestSQSReloader_FailedReloadStillDeletes(t *testing.T) {
	mockSQS := new(MockSQSClient)
	reloader := &MockReloader{Err: errors.New("config inválida")}

	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{
		Messages: []types.Message{{ReceiptHandle: aws.String("h")}},
	}, nil).Once()
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{}, nil).Maybe()
	mockSQS.On("DeleteMessage", mock.Anything, mock.Anything).Return(nil, nil)

	runFor(NewSQSReloader(mockSQS, testQueue, reloader), 100*time.Millisecond)

	assert.Equal(t, 1, reloader.Calls())
	mockSQS.AssertNumberOfCalls(t, "DeleteMessage", 1)
}

func TestSQSReloader_RetriesAfterError(t *testing.T) {
	mockSQS := new(MockSQSClient)
	reloader := &MockReloader{}

	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{
		Messages: []types.Message{{ReceiptHandle: aws.String("h")}},
	}, nil).Once()
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{}, nil).Maybe()
	mockSQS.On("DeleteMessage", mock.Anything, mock.Anything).Return(nil, nil)

	r := NewSQSReloader(mockSQS, testQueue, reloader)
	r.retryDelay = 10 * time.Millisecond
	runFor(r, 150*time.Millisecond)

	assert.Equal(t, 1, reloader.Calls())
}

func TestSQSReloader_NoQueueReturnsImmediately(t *testing.T) {
	mockSQS := new(MockSQSClient)
	r := NewSQSReloader(mockSQS, "", &MockReloader{})

	done := make(chan struct{})
	go func() {
		r.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return without a queue")
	}
	mockSQS.AssertNotCalled(t, "ReceiveMessage", mock.Anything, mock.Anything)
}
