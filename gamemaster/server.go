package gamemaster

import (
	"errors"
	"time"

	"checkers/config"
	"checkers/engine"
	"checkers/game"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

// Square is the body of select, move and click requests.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type actionResponse struct {
	OK   bool        `json:"ok"`
	View engine.View `json:"view"`
}

type createResponse struct {
	ID   string      `json:"id"`
	View engine.View `json:"view"`
}

// Server bridges an out-of-process UI to engine sessions over HTTP and a
// WebSocket view stream.
type Server struct {
	app     *fiber.App
	manager *Manager
}

func NewServer(settings config.Game, reporter engine.Reporter) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		manager: NewManager(settings, reporter),
	}

	s.app.Use(requestLogger)

	api := s.app.Group("/api/games")
	api.Post("/", s.createGame)
	api.Get("/:id", s.getGame)
	api.Delete("/:id", s.deleteGame)
	api.Post("/:id/select", s.squareAction(func(e *engine.Engine, sq Square) (bool, error) {
		return e.Select(sq.Row, sq.Col)
	}))
	api.Post("/:id/move", s.squareAction(func(e *engine.Engine, sq Square) (bool, error) {
		return e.Apply(sq.Row, sq.Col)
	}))
	api.Post("/:id/click", s.squareAction(func(e *engine.Engine, sq Square) (bool, error) {
		return e.Click(sq.Row, sq.Col)
	}))
	api.Post("/:id/undo", s.action(func(e *engine.Engine) (bool, error) {
		return e.Undo(), nil
	}))
	api.Post("/:id/redo", s.action(func(e *engine.Engine) (bool, error) {
		return e.Redo(), nil
	}))
	api.Post("/:id/step", s.action(func(e *engine.Engine) (bool, error) {
		return e.Step(), nil
	}))

	s.app.Get("/ws/games/:id", s.upgrade, websocket.New(s.stream))

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Manager() *Manager {
	return s.manager
}

func (s *Server) Listen(addr string) error {
	log.Info().Msgf("listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("request")
	return err
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, ErrSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, game.ErrOutOfBounds),
		errors.Is(err, engine.ErrUnknownMode),
		errors.Is(err, game.ErrUnknownColor):
		code = fiber.StatusBadRequest
	}
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) createGame(c *fiber.Ctx) error {
	var req CreateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	sess, err := s.manager.Create(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(createResponse{ID: sess.id, View: sess.view()})
}

func (s *Server) getGame(c *fiber.Ctx) error {
	sess, err := s.manager.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sess.view())
}

func (s *Server) deleteGame(c *fiber.Ctx) error {
	if err := s.manager.Delete(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) action(fn func(e *engine.Engine) (bool, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.manager.Get(c.Params("id"))
		if err != nil {
			return err
		}
		ok, view, err := sess.do(fn)
		if err != nil {
			return err
		}
		return c.JSON(actionResponse{OK: ok, View: view})
	}
}

func (s *Server) squareAction(fn func(e *engine.Engine, sq Square) (bool, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sq Square
		if err := c.BodyParser(&sq); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return s.action(func(e *engine.Engine) (bool, error) {
			return fn(e, sq)
		})(c)
	}
}

// upgrade admits WebSocket upgrades for existing games only.
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := s.manager.Get(c.Params("id")); err != nil {
		return err
	}
	return c.Next()
}

// stream writes the current view, then every later one, until either side
// closes the connection.
func (s *Server) stream(conn *websocket.Conn) {
	id := conn.Params("id")
	sess, err := s.manager.Get(id)
	if err != nil {
		_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
		return
	}

	sub, views := sess.subscribe()
	defer sess.unsubscribe(sub)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(sess.view()); err != nil {
		log.Debug().Err(err).Str("game", id).Msg("websocket write failed")
		return
	}
	for {
		select {
		case v, ok := <-views:
			if !ok {
				return
			}
			if err := conn.WriteJSON(v); err != nil {
				log.Debug().Err(err).Str("game", id).Msg("websocket write failed")
				return
			}
		case <-closed:
			return
		}
	}
}
