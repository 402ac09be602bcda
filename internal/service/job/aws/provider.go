// Package aws provides an AWS Transcribe batch job provider.
package aws

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"speech-batch-transcriber/internal/service/job"
)

// API is the subset of the Transcribe client the provider uses.
type API interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Provider implements job.Provider using AWS Transcribe.
type Provider struct {
	api API
}

// New creates a provider from the default AWS credential chain.
// An empty region uses the region from the environment or shared config.
func New(ctx context.Context, region string) (*Provider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithAPI(transcribe.NewFromConfig(cfg)), nil
}

// NewWithAPI wraps an existing Transcribe client.
func NewWithAPI(api API) *Provider {
	return &Provider{api: api}
}

// Name returns "aws".
func (p *Provider) Name() string { return "aws" }

// StartJob calls StartTranscriptionJob and returns the AWS request ID.
func (p *Provider) StartJob(ctx context.Context, req job.Request) (string, error) {
	out, err := p.api.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.JobName),
		Media:                &types.Media{MediaFileUri: aws.String(req.MediaURI)},
		MediaFormat:          types.MediaFormat(strings.ToLower(req.Format)),
		LanguageCode:         types.LanguageCode(req.LanguageCode),
		MediaSampleRateHertz: aws.Int32(int32(req.SampleRateHz)),
	})
	if err != nil {
		return "", err
	}

	requestID, _ := awsmiddleware.GetRequestIDMetadata(out.ResultMetadata)
	return requestID, nil
}

// JobStatus calls GetTranscriptionJob once.
func (p *Provider) JobStatus(ctx context.Context, jobName string) (job.Snapshot, error) {
	out, err := p.api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		return job.Snapshot{}, err
	}
	if out.TranscriptionJob == nil {
		return job.Snapshot{}, errors.New("transcription job missing from response")
	}
	tj := out.TranscriptionJob

	status, err := job.ParseStatus(string(tj.TranscriptionJobStatus))
	if err != nil {
		return job.Snapshot{}, err
	}

	snap := job.Snapshot{
		Status:        status,
		FailureReason: aws.ToString(tj.FailureReason),
	}
	if tj.Transcript != nil {
		snap.TranscriptURI = aws.ToString(tj.Transcript.TranscriptFileUri)
	}
	return snap, nil
}
