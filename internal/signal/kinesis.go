package signal

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"simplirtc/native/internal/domain"
	"simplirtc/native/internal/webrtc"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesisvideo"
	kvtypes "github.com/aws/aws-sdk-go-v2/service/kinesisvideo/types"
	"github.com/aws/smithy-go"
)

const (
	signingService  = "kinesisvideo"
	sendOfferPath   = "/v1/send-alexa-offer-to-master"
	maxResponseSize = 1 << 20
	errorTypeHeader = "X-Amzn-Errortype"
	contentTypeJSON = "application/json"
)

type channelAPI interface {
	GetSignalingChannelEndpoint(ctx context.Context, in *kinesisvideo.GetSignalingChannelEndpointInput, optFns ...func(*kinesisvideo.Options)) (*kinesisvideo.GetSignalingChannelEndpointOutput, error)
}

type sendOfferInput struct {
	ChannelARN     string `json:"ChannelARN"`
	SenderClientID string `json:"SenderClientId"`
	MessagePayload string `json:"MessagePayload"`
}

type sendOfferOutput struct {
	Answer string `json:"Answer"`
}

type serviceError struct {
	Message      string `json:"message"`
	MessageUpper string `json:"Message"`
}

// KinesisSignaler exchanges offers through the Kinesis Video signaling API
// using the channel ARN from the live view.
type KinesisSignaler struct {
	loadConfig    func(ctx context.Context, region string) (aws.Config, error)
	channelClient func(cfg aws.Config) channelAPI
	httpClient    *http.Client
	signer        *v4.Signer
}

// NewKinesisSignaler returns a signaler backed by the default AWS credential
// chain.
func NewKinesisSignaler() *KinesisSignaler {
	return &KinesisSignaler{
		loadConfig: func(ctx context.Context, region string) (aws.Config, error) {
			return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		},
		channelClient: func(cfg aws.Config) channelAPI {
			return kinesisvideo.NewFromConfig(cfg)
		},
		httpClient: http.DefaultClient,
		signer:     v4.NewSigner(),
	}
}

// SendOffer implements domain.Signaler.
func (s *KinesisSignaler) SendOffer(ctx context.Context, region string, desc *domain.LiveViewDescriptor, offer string) (string, error) {
	cfg, err := s.loadConfig(ctx, region)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	endpoint, err := s.httpsEndpoint(ctx, cfg, desc.SignalingEndpoint)
	if err != nil {
		return "", err
	}

	payload, err := webrtc.EncodeOffer(offer)
	if err != nil {
		return "", err
	}

	slog.Debug("sending offer to master", "component", "signal", "region", region, "endpoint", endpoint)

	out, err := s.sendAlexaOffer(ctx, cfg, endpoint, &sendOfferInput{
		ChannelARN:     desc.SignalingEndpoint,
		SenderClientID: desc.ClientID,
		MessagePayload: payload,
	})
	if err != nil {
		return "", fmt.Errorf("send offer to master: %w", describeAPIError(err))
	}

	answer, err := webrtc.DecodeAnswer(out.Answer)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstreamSignaling, err)
	}
	return answer, nil
}

func (s *KinesisSignaler) httpsEndpoint(ctx context.Context, cfg aws.Config, arn string) (string, error) {
	out, err := s.channelClient(cfg).GetSignalingChannelEndpoint(ctx, &kinesisvideo.GetSignalingChannelEndpointInput{
		ChannelARN: aws.String(arn),
		SingleMasterChannelEndpointConfiguration: &kvtypes.SingleMasterChannelEndpointConfiguration{
			Protocols: []kvtypes.ChannelProtocol{kvtypes.ChannelProtocolHttps},
			Role:      kvtypes.ChannelRoleViewer,
		},
	})
	if err != nil {
		return "", fmt.Errorf("get signaling channel endpoint: %w", describeAPIError(err))
	}

	for _, item := range out.ResourceEndpointList {
		if item.Protocol == kvtypes.ChannelProtocolHttps && aws.ToString(item.ResourceEndpoint) != "" {
			return strings.TrimRight(aws.ToString(item.ResourceEndpoint), "/"), nil
		}
	}
	return "", fmt.Errorf("%w: no HTTPS endpoint for %s", domain.ErrUpstreamSignaling, arn)
}

// sendAlexaOffer posts a SigV4-signed SendAlexaOfferToMaster request to the
// channel's HTTPS endpoint. It mirrors kinesisvideosignaling.SendAlexaOfferToMaster.
func (s *KinesisSignaler) sendAlexaOffer(ctx context.Context, cfg aws.Config, endpoint string, in *sendOfferInput) (*sendOfferOutput, error) {
	if cfg.Credentials == nil {
		return nil, errors.New("no aws credentials configured")
	}
	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve aws credentials: %w", err)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+sendOfferPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	hash := sha256.Sum256(body)
	if err := s.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(hash[:]), signingService, cfg.Region, time.Now()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, data)
	}

	var out sendOfferOutput
	if len(bytes.TrimSpace(data)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

// apiError turns an AWS JSON error response into a smithy.APIError.
func apiError(resp *http.Response, body []byte) error {
	code, _, _ := strings.Cut(resp.Header.Get(errorTypeHeader), ":")
	if code == "" {
		code = http.StatusText(resp.StatusCode)
	}

	var se serviceError
	_ = json.Unmarshal(body, &se)
	msg := se.Message
	if msg == "" {
		msg = se.MessageUpper
	}

	fault := smithy.FaultClient
	if resp.StatusCode >= http.StatusInternalServerError {
		fault = smithy.FaultServer
	}
	return fmt.Errorf("http %d: %w", resp.StatusCode, &smithy.GenericAPIError{Code: code, Message: msg, Fault: fault})
}

// describeAPIError prefixes service faults with their AWS error code.
func describeAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", apiErr.ErrorCode(), err)
	}
	return err
}
