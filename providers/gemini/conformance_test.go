package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/petal-labs/gemkit/core"
	"github.com/petal-labs/gemkit/providers/internal/mockserver"
)

// These tests check the hand-written wire types against the official SDK's
// JSON shapes, in both directions.

// sdkRequest is the generateContent body expressed with SDK types.
type sdkRequest struct {
	Contents          []*genai.Content        `json:"contents"`
	SystemInstruction *genai.Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *genai.GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []*genai.SafetySetting  `json:"safetySettings,omitempty"`
}

func TestEncodedRequestMatchesSDK(t *testing.T) {
	req := &core.GenerationRequest{
		Model:             "gemini-2.5-flash",
		SystemInstruction: &core.Content{Parts: []core.Part{core.Text("Answer in French.")}},
		Contents: []core.Content{
			core.UserText("Hello"),
			{Role: core.RoleUser, Parts: []core.Part{core.InlineData{MIMEType: "image/jpeg", Data: []byte("jpeg-bytes")}}},
		},
		Config: &core.GenerationConfig{
			Temperature:     ptr(float32(0.7)),
			TopP:            ptr(float32(0.9)),
			TopK:            ptr(32),
			MaxOutputTokens: ptr(256),
			CandidateCount:  ptr(2),
			StopSequences:   []string{"END"},
		},
		SafetySettings: []core.SafetySetting{{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_LOW_AND_ABOVE"}},
	}

	body, err := json.Marshal(buildRequest(req))
	require.NoError(t, err)

	var got sdkRequest
	require.NoError(t, json.Unmarshal(body, &got))

	require.Len(t, got.Contents, 2)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "Hello", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.Contents[1].Parts[0].InlineData)
	assert.Equal(t, "image/jpeg", got.Contents[1].Parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte("jpeg-bytes"), got.Contents[1].Parts[0].InlineData.Data)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "Answer in French.", got.SystemInstruction.Parts[0].Text)

	cfg := got.GenerationConfig
	require.NotNil(t, cfg)
	assert.Equal(t, genai.Ptr(float32(0.7)), cfg.Temperature)
	assert.Equal(t, genai.Ptr(float32(0.9)), cfg.TopP)
	assert.Equal(t, genai.Ptr(float32(32)), cfg.TopK)
	assert.Equal(t, int32(256), cfg.MaxOutputTokens)
	assert.Equal(t, int32(2), cfg.CandidateCount)
	assert.Equal(t, []string{"END"}, cfg.StopSequences)

	require.Len(t, got.SafetySettings, 1)
	assert.Equal(t, genai.HarmCategoryDangerousContent, got.SafetySettings[0].Category)
	assert.Equal(t, genai.HarmBlockThresholdBlockLowAndAbove, got.SafetySettings[0].Threshold)
}

func TestDecodesSDKResponse(t *testing.T) {
	sdk := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Index: 0,
				Content: &genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: "Bonjour"}, {Text: " !"}},
				},
				FinishReason: genai.FinishReasonStop,
				SafetyRatings: []*genai.SafetyRating{{
					Category:    genai.HarmCategoryHarassment,
					Probability: genai.HarmProbabilityNegligible,
				}},
			},
			{
				Index:        1,
				FinishReason: genai.FinishReasonMaxTokens,
				Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "Salut"}}},
			},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     4,
			CandidatesTokenCount: 3,
			TotalTokenCount:      7,
		},
		ModelVersion: "gemini-2.5-flash",
	}
	body, err := json.Marshal(sdk)
	require.NoError(t, err)

	resp, err := decodeResponse(200, body, "gemini-2.5-flash")
	require.NoError(t, err)

	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, "Bonjour !", resp.Text())
	assert.Equal(t, core.FinishReasonStop, resp.Candidates[0].FinishReason)
	assert.Equal(t, 1, resp.Candidates[1].Index)
	assert.Equal(t, core.FinishReasonMaxTokens, resp.Candidates[1].FinishReason)
	assert.Equal(t, "HARM_CATEGORY_HARASSMENT", resp.Candidates[0].SafetyRatings[0].Category)
	assert.Equal(t, core.TokenUsage{PromptTokens: 4, CompletionTokens: 3, TotalTokens: 7}, resp.Usage)
}

func TestDecodesSDKStreamRecords(t *testing.T) {
	records := []*genai.GenerateContentResponse{
		{Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "Un"}}}}}},
		{Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: ", deux"}}},
			FinishReason: genai.FinishReasonStop,
		}}},
	}

	var frames []string
	for _, r := range records {
		b, err := json.Marshal(r)
		require.NoError(t, err)
		frames = append(frames, string(b))
	}

	reader := newTestReader(&framedBody{frames: []string{sse(frames...)}})
	chunks, err := readAll(t, reader)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.False(t, chunks[0].Terminal)
	assert.True(t, chunks[1].Terminal)
	assert.Equal(t, "Un, deux", chunks[0].Text()+chunks[1].Text())
}

func TestBlockedPromptMatchesSDK(t *testing.T) {
	var sdk genai.GenerateContentResponse
	require.NoError(t, json.Unmarshal([]byte(mockserver.BlockedPrompt("SAFETY")), &sdk))
	require.NotNil(t, sdk.PromptFeedback)
	assert.Equal(t, genai.BlockedReasonSafety, sdk.PromptFeedback.BlockReason)

	_, err := decodeResponse(200, []byte(mockserver.BlockedPrompt("SAFETY")), "m")
	assert.ErrorIs(t, err, core.ErrSafetyBlocked)
}
