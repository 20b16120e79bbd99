package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MessagePart mirrors the provider wire shape for one message fragment.
type MessagePart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Handle is one participant of a simulated chat.
type Handle struct {
	Handle  string `json:"handle"`
	ID      string `json:"id"`
	IsMe    bool   `json:"is_me"`
	Service string `json:"service"`
	Status  string `json:"status"`
}

// Chat is one simulated conversation.
type Chat struct {
	ID        string   `json:"id"`
	Handles   []Handle `json:"handles"`
	Service   string   `json:"service"`
	IsGroup   bool     `json:"is_group"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// ChatMessage is one message inside a simulated chat.
type ChatMessage struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chat_id"`
	From      string        `json:"from"`
	Parts     []MessagePart `json:"parts"`
	CreatedAt time.Time     `json:"created_at"`
}

// CreateChatRequest is the inbound chat-creation payload.
type CreateChatRequest struct {
	From    string `json:"from" binding:"required"`
	To      []string `json:"to" binding:"required"`
	Message *struct {
		Parts []MessagePart `json:"parts"`
	} `json:"message"`
}

// MockProvider simulates the messaging provider: it decides per recipient
// whether the handle is iMessage-capable and fabricates delayed replies so
// the response poller has something to pick up.
type MockProvider struct {
	mu           sync.RWMutex
	chats        map[string]*Chat
	messages     map[string][]ChatMessage
	byRecipient  map[string]string
	imessageRate float64
	replyRate    float64
	minReply     time.Duration
	maxReply     time.Duration
	rng          *rand.Rand
}

var cannedReplies = []string{
	"Yes this is me",
	"yeah that's me",
	"Who is this?",
	"wrong number sorry",
	"STOP",
	"not interested, thanks",
	"just signed up!",
	"What is Trailblaize?",
}

func NewMockProvider(imessageRate, replyRate float64, minReply, maxReply time.Duration) *MockProvider {
	return &MockProvider{
		chats:        make(map[string]*Chat),
		messages:     make(map[string][]ChatMessage),
		byRecipient:  make(map[string]string),
		imessageRate: imessageRate,
		replyRate:    replyRate,
		minReply:     minReply,
		maxReply:     maxReply,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// createChat reuses the conversation when the recipient already has one.
func (p *MockProvider) createChat(req *CreateChatRequest) *Chat {
	p.mu.Lock()
	defer p.mu.Unlock()

	recipient := req.To[0]
	chatID, exists := p.byRecipient[recipient]
	var chat *Chat

	if exists {
		chat = p.chats[chatID]
	} else {
		service := "SMS"
		if p.rng.Float64() < p.imessageRate {
			service = "iMessage"
		}
		now := time.Now().UTC().Format(time.RFC3339)
		chat = &Chat{
			ID:      "chat_" + uuid.New().String()[:12],
			Service: service,
			Handles: []Handle{
				{Handle: req.From, ID: uuid.New().String(), IsMe: true, Service: service, Status: "active"},
				{Handle: recipient, ID: uuid.New().String(), IsMe: false, Service: service, Status: "active"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		p.chats[chat.ID] = chat
		p.byRecipient[recipient] = chat.ID
	}

	if req.Message != nil && len(req.Message.Parts) > 0 {
		msg := ChatMessage{
			ID:        "msg_" + uuid.New().String()[:12],
			ChatID:    chat.ID,
			From:      req.From,
			Parts:     req.Message.Parts,
			CreatedAt: time.Now().UTC(),
		}
		p.messages[chat.ID] = append(p.messages[chat.ID], msg)

		if p.rng.Float64() < p.replyRate {
			go p.scheduleReply(chat.ID, recipient)
		}
	}

	return chat
}

func (p *MockProvider) scheduleReply(chatID, from string) {
	delta := p.maxReply - p.minReply
	delay := p.minReply + time.Duration(p.rng.Int63n(int64(delta)))
	time.Sleep(delay)

	p.mu.Lock()
	defer p.mu.Unlock()

	reply := ChatMessage{
		ID:        "msg_" + uuid.New().String()[:12],
		ChatID:    chatID,
		From:      from,
		Parts:     []MessagePart{{Type: "text", Value: cannedReplies[p.rng.Intn(len(cannedReplies))]}},
		CreatedAt: time.Now().UTC(),
	}
	p.messages[chatID] = append(p.messages[chatID], reply)

	log.Info().
		Str("chat_id", chatID).
		Str("from", from).
		Str("text", reply.Parts[0].Value).
		Msg("Simulated inbound reply")
}

func (p *MockProvider) getMessages(chatID string, limit int) ([]ChatMessage, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.chats[chatID]; !ok {
		return nil, false
	}
	msgs := p.messages[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out, true
}

// Handler holds the mock provider and routes.
type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

// CreateChat handles chat creation, with or without an initial message.
func (h *Handler) CreateChat(c *gin.Context) {
	var req CreateChatRequest

	if err := c.ShouldBindJSON(&req); err != nil || len(req.To) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request",
		})
		return
	}

	chat := h.provider.createChat(&req)

	log.Info().
		Str("chat_id", chat.ID).
		Str("from", req.From).
		Str("to", req.To[0]).
		Str("service", chat.Service).
		Bool("with_message", req.Message != nil).
		Msg("Chat request processed")

	c.JSON(http.StatusCreated, chat)
}

// GetMessages returns the most recent messages of a chat.
func (h *Handler) GetMessages(c *gin.Context) {
	chatID := c.Param("chat_id")
	limit := 20
	if v := c.Query("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}

	msgs, ok := h.provider.getMessages(chatID, limit)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "chat not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// HealthCheck reports simulator liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// SetupRouter configures all routes.
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	v3 := router.Group("/api/partner/v3")
	{
		v3.POST("/chats", handler.CreateChat)
		v3.GET("/chats/:chat_id/messages", handler.GetMessages)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	imessageRate := getEnvFloat("IMESSAGE_RATE", 0.8)
	replyRate := getEnvFloat("REPLY_RATE", 0.5)
	minReply := getEnvDuration("MIN_REPLY_DELAY", 2*time.Second)
	maxReply := getEnvDuration("MAX_REPLY_DELAY", 15*time.Second)

	log.Info().
		Str("port", port).
		Float64("imessage_rate", imessageRate).
		Float64("reply_rate", replyRate).
		Msg("Starting provider simulator")

	provider := NewMockProvider(imessageRate, replyRate, minReply, maxReply)
	handler := NewHandler(provider)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
