package queue

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu       sync.Mutex
	sent     []*sqs.SendMessageInput
	deleted  []string
	inbox    []types.Message
	sendErr  error
	received int
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received++
	msgs := f.inbox
	f.inbox = nil
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestSQSPublisher_Publish(t *testing.T) {
	f := &fakeSQS{}
	p := NewSQSPublisher(f, map[string]string{"video-uploaded": "https://sqs/q"}, quietLogger())

	require.NoError(t, p.Publish(context.Background(), "video-uploaded", []byte(`{"videoId":"abc"}`)))
	require.Len(t, f.sent, 1)
	assert.Equal(t, "https://sqs/q", aws.ToString(f.sent[0].QueueUrl))
	assert.Equal(t, `{"videoId":"abc"}`, aws.ToString(f.sent[0].MessageBody))

	err := p.Publish(context.Background(), "unknown", nil)
	assert.Error(t, err)

	f.sendErr = errors.New("boom")
	assert.Error(t, p.Publish(context.Background(), "video-uploaded", nil))
}

func TestSQSConsumer_ReceiveAndSettle(t *testing.T) {
	f := &fakeSQS{inbox: []types.Message{{
		MessageId:     aws.String("m-1"),
		Body:          aws.String("hello"),
		ReceiptHandle: aws.String("rh-1"),
		Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
	}}}
	c := NewSQSConsumer(f, "https://sqs/q", time.Minute, quietLogger())

	msgs, err := c.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", string(msgs[0].Body))
	assert.Equal(t, 3, msgs[0].ReceiveCount)

	require.NoError(t, c.Settle(context.Background(), msgs[0], Retry))
	assert.Empty(t, f.deleted, "retry leaves the message in place")

	require.NoError(t, c.Settle(context.Background(), msgs[0], Reject))
	assert.Equal(t, []string{"rh-1"}, f.deleted)
}

func TestSQSConsumer_RunStopsOnCancel(t *testing.T) {
	f := &fakeSQS{inbox: []types.Message{{MessageId: aws.String("m-1"), Body: aws.String("x"), ReceiptHandle: aws.String("rh")}}}
	c := NewSQSConsumer(f, "https://sqs/q", time.Minute, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	err := c.Run(ctx, func(ctx context.Context, m Message) error {
		got = append(got, m.ID)
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m-1"}, got)
}

func TestParseObjectNotifications(t *testing.T) {
	body := []byte(`{"Records":[
		{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"raw"},"object":{"key":"u1/171-my+clip.mp4","size":42}}},
		{"eventName":"ObjectRemoved:Delete","s3":{"bucket":{"name":"raw"},"object":{"key":"u1/old.mp4"}}},
		{"eventName":"s3:ObjectCreated:CompleteMultipartUpload","s3":{"bucket":{"name":"raw"},"object":{"key":"u2/a%2Bb.mov"}}}
	]}`)

	got, skipped, err := ParseObjectNotifications(body)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, []ObjectFinalized{
		{Bucket: "raw", Name: "u1/171-my clip.mp4", Size: 42},
		{Bucket: "raw", Name: "u2/a+b.mov"},
	}, got)

	got, _, err = ParseObjectNotifications([]byte(`{"Event":"s3:TestEvent"}`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, _, err = ParseObjectNotifications([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseObjectNotifications_BadKeyKeepsBatch(t *testing.T) {
	body := []byte(`{"Records":[
		{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"raw"},"object":{"key":"u1/bad%zz.mp4"}}},
		{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"raw"},"object":{"key":"u1/171-good.mp4","size":7}}}
	]}`)

	got, skipped, err := ParseObjectNotifications(body)
	require.NoError(t, err)
	assert.Equal(t, []ObjectFinalized{{Bucket: "raw", Name: "u1/171-good.mp4", Size: 7}}, got)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Error(), "u1/bad%zz.mp4")
}

func TestPushEnvelope_Decode(t *testing.T) {
	var env PushEnvelope
	env.Message.MessageID = "1"
	env.Message.Data = base64.StdEncoding.EncodeToString([]byte(`{"videoId":"abc"}`))

	msg, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, `{"videoId":"abc"}`, string(msg.Body))

	_, err = (&PushEnvelope{}).Decode()
	assert.ErrorIs(t, err, ErrNoMessage)

	bad := PushEnvelope{}
	bad.Message.Data = "%%%"
	_, err = bad.Decode()
	assert.Error(t, err)
}
