// Package server exposes the response pipeline and spam classifier over HTTP.
package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/replyforge/replyforge/internal/pipeline"
	"github.com/replyforge/replyforge/internal/spam"
	"github.com/replyforge/replyforge/internal/util"
)

const version = "1.0.0"

// sampleEmail drives the GET /test endpoint.
const sampleEmail = "I would like to return my laptop that I purchased last week. It has a screen issue."

// Server wires the HTTP routes to the pipeline and the spam classifier.
// The spam classifier may be nil when no model is configured; the endpoints
// that need it then report the classifier as unavailable.
type Server struct {
	app  *fiber.App
	pipe *pipeline.Orchestrator
	spam *spam.Classifier
	log  zerolog.Logger
}

// New builds the HTTP server around its collaborators.
func New(pipe *pipeline.Orchestrator, spamClassifier *spam.Classifier, log zerolog.Logger) *Server {
	s := &Server{
		pipe: pipe,
		spam: spamClassifier,
		log:  log.With().Str("component", "http").Logger(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "replyforge",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/health", s.handleHealth)
	app.Post("/predict", s.handleClassify)
	app.Post("/classify-email", s.handleClassify)
	app.Post("/generate-response", s.handleGenerateResponse)
	app.Get("/test", s.handleTest)

	s.app = app
	return s
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("http server listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "healthy",
		"spam_classifier": s.spam != nil,
		"version":         version,
	})
}

// classifyRequest accepts both field names the clients use.
type classifyRequest struct {
	Text  string `json:"text"`
	Email string `json:"email"`
}

func (r classifyRequest) body() string {
	if strings.TrimSpace(r.Text) != "" {
		return r.Text
	}
	return r.Email
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}
	text := req.body()
	if strings.TrimSpace(text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'email' in request body",
		})
	}
	if s.spam == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "spam classifier not initialized",
		})
	}
	return c.JSON(s.spam.Predict(text))
}

type generateRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleGenerateResponse(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'email' in request body",
		})
	}

	// Spam screen before the pipeline runs. Without a model every email is
	// treated as ham with neutral confidence.
	spamResult := spam.Prediction{Prediction: "ham", SpamProbability: 0.5, Confidence: 0.5}
	if s.spam != nil {
		spamResult = s.spam.Predict(req.Email)
		if spamResult.Prediction == "spam" {
			s.log.Info().
				Float64("spam_probability", spamResult.SpamProbability).
				Msg("email classified as spam, skipping response generation")
			return c.JSON(fiber.Map{
				"is_spam":         true,
				"spam_confidence": spamResult.Confidence,
				"response":        nil,
				"message":         "Email classified as spam. No response generated.",
				"success":         true,
			})
		}
	}
	hamConfidence := 1 - spamResult.SpamProbability

	result := s.pipe.Run(c.UserContext(), req.Email)
	if !result.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"is_spam":         false,
			"spam_confidence": hamConfidence,
			"response":        nil,
			"success":         false,
			"error":           util.RedactSecrets(result.Err),
		})
	}

	return c.JSON(fiber.Map{
		"is_spam":         false,
		"spam_confidence": hamConfidence,
		"response":        result.ResponseText,
		"classification":  result.Classification,
		"validation":      result.Validation,
		"success":         true,
	})
}

func (s *Server) handleTest(c *fiber.Ctx) error {
	result := s.pipe.Run(c.UserContext(), sampleEmail)
	return c.JSON(fiber.Map{
		"test_email": sampleEmail,
		"result":     result,
	})
}
