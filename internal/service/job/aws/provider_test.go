package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go/middleware"

	"speech-batch-transcriber/internal/service/job"
)

type fakeAPI struct {
	startInput *transcribe.StartTranscriptionJobInput
	startErr   error
	requestID  string

	getOutputs []*transcribe.GetTranscriptionJobOutput
	getErr     error
	getCalls   int
}

func (f *fakeAPI) StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	f.startInput = params
	if f.startErr != nil {
		return nil, f.startErr
	}
	out := &transcribe.StartTranscriptionJobOutput{}
	if f.requestID != "" {
		md := middleware.Metadata{}
		awsmiddleware.SetRequestIDMetadata(&md, f.requestID)
		out.ResultMetadata = md
	}
	return out, nil
}

func (f *fakeAPI) GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	i := f.getCalls - 1
	if i >= len(f.getOutputs) {
		i = len(f.getOutputs) - 1
	}
	return f.getOutputs[i], nil
}

func jobOutput(status types.TranscriptionJobStatus, uri, reason string) *transcribe.GetTranscriptionJobOutput {
	tj := &types.TranscriptionJob{
		TranscriptionJobName:   aws.String("job-1"),
		TranscriptionJobStatus: status,
	}
	if uri != "" {
		tj.Transcript = &types.Transcript{TranscriptFileUri: aws.String(uri)}
	}
	if reason != "" {
		tj.FailureReason = aws.String(reason)
	}
	return &transcribe.GetTranscriptionJobOutput{TranscriptionJob: tj}
}

func TestProvider_StartJob(t *testing.T) {
	api := &fakeAPI{requestID: "4f7a1c2e-req"}
	p := NewWithAPI(api)

	id, err := p.StartJob(context.Background(), job.Request{
		JobName:      "job-1",
		MediaURI:     "s3://bucket/audio.mp3",
		Format:       "MP3",
		LanguageCode: "en-US",
		SampleRateHz: 44100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "4f7a1c2e-req" {
		t.Errorf("expected request id from metadata, got %q", id)
	}

	in := api.startInput
	if aws.ToString(in.TranscriptionJobName) != "job-1" {
		t.Errorf("unexpected job name %q", aws.ToString(in.TranscriptionJobName))
	}
	if aws.ToString(in.Media.MediaFileUri) != "s3://bucket/audio.mp3" {
		t.Errorf("unexpected media uri %q", aws.ToString(in.Media.MediaFileUri))
	}
	if in.MediaFormat != types.MediaFormatMp3 {
		t.Errorf("expected lower-cased media format mp3, got %q", in.MediaFormat)
	}
	if in.LanguageCode != types.LanguageCodeEnUs {
		t.Errorf("unexpected language code %q", in.LanguageCode)
	}
	if aws.ToInt32(in.MediaSampleRateHertz) != 44100 {
		t.Errorf("unexpected sample rate %d", aws.ToInt32(in.MediaSampleRateHertz))
	}
}

func TestProvider_StartJob_Error(t *testing.T) {
	cause := errors.New("ConflictException: The requested job name already exists")
	p := NewWithAPI(&fakeAPI{startErr: cause})

	_, err := p.StartJob(context.Background(), job.Request{JobName: "job-1"})
	if !errors.Is(err, cause) {
		t.Errorf("expected service error, got %v", err)
	}
}

func TestProvider_JobStatus(t *testing.T) {
	tests := []struct {
		name       string
		output     *transcribe.GetTranscriptionJobOutput
		wantStatus job.Status
		wantURI    string
		wantReason string
		wantErr    bool
	}{
		{"queued", jobOutput(types.TranscriptionJobStatusQueued, "", ""), job.StatusInProgress, "", "", false},
		{"in progress", jobOutput(types.TranscriptionJobStatusInProgress, "", ""), job.StatusInProgress, "", "", false},
		{"completed", jobOutput(types.TranscriptionJobStatusCompleted, "https://s3.amazonaws.com/b/job-1.json", ""), job.StatusCompleted, "https://s3.amazonaws.com/b/job-1.json", "", false},
		{"failed", jobOutput(types.TranscriptionJobStatusFailed, "", "Invalid sample rate"), job.StatusFailed, "", "Invalid sample rate", false},
		{"unknown status", jobOutput(types.TranscriptionJobStatus("PAUSED"), "", ""), 0, "", "", true},
		{"missing job", &transcribe.GetTranscriptionJobOutput{}, 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWithAPI(&fakeAPI{getOutputs: []*transcribe.GetTranscriptionJobOutput{tt.output}})

			snap, err := p.JobStatus(context.Background(), "job-1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("JobStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if snap.Status != tt.wantStatus {
				t.Errorf("expected %v, got %v", tt.wantStatus, snap.Status)
			}
			if snap.TranscriptURI != tt.wantURI {
				t.Errorf("expected uri %q, got %q", tt.wantURI, snap.TranscriptURI)
			}
			if snap.FailureReason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, snap.FailureReason)
			}
		})
	}
}

func TestProvider_JobStatus_TransportError(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	p := NewWithAPI(&fakeAPI{getErr: cause})

	if _, err := p.JobStatus(context.Background(), "job-1"); !errors.Is(err, cause) {
		t.Errorf("expected transport error, got %v", err)
	}
}
