// internal/common/aws/sns_test.go
package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestAlert_PublishesToTopic(t *testing.T) {
	fake := &fakeSNS{}
	client := &SNSClient{client: fake, topicARN: "arn:aws:sns:eu-central-1:1:alerts"}

	require.NoError(t, client.Alert(context.Background(), "generate-post", "boom"))

	require.NotNil(t, fake.input)
	assert.Equal(t, "arn:aws:sns:eu-central-1:1:alerts", aws.ToString(fake.input.TopicArn))
	assert.Equal(t, "linkedin-agent: generate-post failed", aws.ToString(fake.input.Subject))
	assert.Equal(t, "boom", aws.ToString(fake.input.Message))
	assert.Equal(t, "generate-post", aws.ToString(fake.input.MessageAttributes["job"].StringValue))
}

func TestAlert_WrapsPublishError(t *testing.T) {
	client := &SNSClient{client: &fakeSNS{err: errors.New("throttled")}, topicARN: "arn"}

	err := client.Alert(context.Background(), "generate-ideas", "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
