package services

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/utils"
)

const (
	DefaultChatAPIURL = "https://api-inference.huggingface.co/models/microsoft/Phi-3-mini-4k-instruct"
	chatTimeout       = 30 * time.Second

	chatSystemPrompt = `You are an AI assistant for XYZ Bank website.

Rules:
1. Only answer based on XYZ Bank website information.
2. If asked personal account details, refuse politely.
3. Guide users for complaints when needed.
`
)

const (
	ReplyRestricted  = "For security reasons, I cannot access or provide personal account information."
	ReplyWarmingUp   = "The AI model is currently warming up. Please try again in 30 seconds."
	ReplyUnavailable = "Sorry, I am having trouble connecting to my brain right now."
	ReplyEmpty       = "Sorry, I couldn't process that."
)

var ErrEmptyMessage = errors.New("message is required")

var restrictedKeywords = []string{
	"balance",
	"account number",
	"transaction",
	"password",
	"otp",
	"card number",
}

var assistantPrefix = regexp.MustCompile(`(?i)^\n(Bot|Assistant):\s*`)

// Doer is the subset of *fasthttp.Client the chat service needs.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// ChatService relays questions to a hosted text-generation model. It never
// sees account data and refuses questions that ask for it.
type ChatService struct {
	client Doer
	url    string
	token  string
}

func NewChatService(client Doer, url, token string) *ChatService {
	if url == "" {
		url = DefaultChatAPIURL
	}
	return &ChatService{client: client, url: url, token: token}
}

type chatRequest struct {
	Inputs string `json:"inputs"`
}

type chatGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type chatError struct {
	Error string `json:"error"`
}

func isRestricted(message string) bool {
	lower := strings.ToLower(message)
	for _, word := range restrictedKeywords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Reply always produces a user-facing answer; upstream failures become canned
// replies. The only error is ErrEmptyMessage.
func (s *ChatService) Reply(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	if isRestricted(message) {
		utils.LogInfo("ChatService", "restricted question refused")
		return ReplyRestricted, nil
	}

	body, err := json.Marshal(chatRequest{Inputs: chatSystemPrompt + "\nUser: " + message})
	if err != nil {
		return ReplyUnavailable, nil
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.SetBody(body)

	if err := s.client.DoTimeout(req, resp, chatTimeout); err != nil {
		utils.LogError("ChatService", "chat upstream request failed", err)
		return ReplyUnavailable, nil
	}

	var generations []chatGeneration
	if resp.StatusCode() == fasthttp.StatusOK && json.Unmarshal(resp.Body(), &generations) == nil && len(generations) > 0 {
		return extractReply(generations[0].GeneratedText, message), nil
	}

	var upstreamErr chatError
	if json.Unmarshal(resp.Body(), &upstreamErr) == nil && strings.Contains(upstreamErr.Error, "loading") {
		utils.LogWarning("ChatService", "chat model is loading")
		return ReplyWarmingUp, nil
	}

	utils.LogWarning("ChatService", "chat upstream returned status %d", resp.StatusCode())
	return ReplyUnavailable, nil
}

// extractReply strips the echoed prompt some models prepend to their output.
func extractReply(generated, message string) string {
	marker := "User: " + message
	if idx := strings.Index(generated, marker); idx >= 0 {
		generated = assistantPrefix.ReplaceAllString(generated[idx+len(marker):], "")
		generated = strings.TrimSpace(generated)
	}
	if generated == "" {
		return ReplyEmpty
	}
	return generated
}
