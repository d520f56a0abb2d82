package devengine

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/devengine/store"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

const maxUploadBytes = 64 << 20

type errorBody struct {
	ErrorMessage string `json:"errorMessage"`
}

func (s *Server) handleLogin(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if !s.validLogin(username, password) {
		return c.JSON(http.StatusUnauthorized, errorBody{ErrorMessage: "Invalid username or password"})
	}

	token := uuid.NewString()
	user := pixel.User{
		ID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte("user:"+username)).String(),
		Name:  username,
		Email: username + "@localhost",
	}
	s.mu.Lock()
	s.sessions[token] = user
	s.mu.Unlock()

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info("user logged in", zap.String("user", username))
	return c.JSON(http.StatusOK, map[string]any{"success": true, "username": username})
}

func (s *Server) validLogin(username, password string) bool {
	if username == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
	return userOK && passOK
}

func (s *Server) handleUserInfo(c echo.Context) error {
	_, user, ok := s.session(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{ErrorMessage: "User is not logged in"})
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c echo.Context) error {
	if token, _, ok := s.session(c); ok {
		s.mu.Lock()
		delete(s.sessions, token)
		for id, owner := range s.insights {
			if owner == token {
				delete(s.insights, id)
			}
		}
		s.mu.Unlock()
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) session(c echo.Context) (string, pixel.User, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", pixel.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.sessions[cookie.Value]
	return cookie.Value, user, ok
}

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, user, ok := s.session(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody{ErrorMessage: "User is not logged in"})
		}
		c.Set(ctxToken, token)
		c.Set(ctxUser, user)
		return next(c)
	}
}

func (s *Server) ownsInsight(token, insight string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insight != "" && s.insights[insight] == token
}

func (s *Server) handleRunPixel(c echo.Context) error {
	token := c.Get(ctxToken).(string)
	user := c.Get(ctxUser).(pixel.User)
	expression := c.FormValue("expression")
	insight := c.FormValue("insightId")

	if insight == pixel.NewInsight {
		insight = uuid.NewString()
		s.mu.Lock()
		s.insights[insight] = token
		s.mu.Unlock()
	} else if !s.ownsInsight(token, insight) {
		return c.JSON(http.StatusOK, pixel.Response{
			InsightID:   insight,
			PixelReturn: []pixel.Return{failure(expression, pixel.OpError, fmt.Sprintf("Could not find insight %q", insight))},
		})
	}

	ret := s.run(c, request{User: user, Insight: insight}, expression)
	return c.JSON(http.StatusOK, pixel.Response{InsightID: insight, PixelReturn: []pixel.Return{ret}})
}

// run executes one expression and never fails at the HTTP level: every
// problem is reported inside the pixel return.
func (s *Server) run(c echo.Context, req request, expression string) pixel.Return {
	if strings.TrimSpace(expression) == pixel.BootstrapExpression {
		return success(expression, true)
	}

	call, err := pixel.Parse(expression)
	if err != nil {
		return failure(expression, pixel.OpInvalidSyntax, err.Error())
	}
	fn, ok := s.reactors[call.Reactor]
	if !ok {
		return failure(expression, pixel.OpError, payload(pixel.CodeBadRequest,
			call.Reactor+" is not available in the development backend"))
	}

	out, err := fn(c.Request().Context(), req, call)
	if err != nil {
		var pe *pixel.Error
		if errors.As(err, &pe) {
			return failure(expression, pixel.OpError, payload(pe.Code, pe.Error()))
		}
		s.log.Error("reactor failed", zap.String("reactor", call.Reactor), zap.Error(err))
		return failure(expression, pixel.OpError, payload(pixel.CodeInternal, pixel.CodeInternal.String()))
	}
	return success(expression, out)
}

func payload(code pixel.Code, message string) map[string]any {
	return map[string]any{"code": int(code), "message": message}
}

func success(expression string, output any) pixel.Return {
	return pixel.Return{
		PixelExpression: expression,
		Output:          mustJSON(output),
		OperationType:   []string{"OPERATION"},
	}
}

func failure(expression, op string, output any) pixel.Return {
	return pixel.Return{
		PixelExpression: expression,
		Output:          mustJSON(output),
		OperationType:   []string{op},
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(err.Error())
	}
	return data
}

func (s *Server) handleUpload(c echo.Context) error {
	token := c.Get(ctxToken).(string)
	insight := c.QueryParam("insightId")
	if !s.ownsInsight(token, insight) {
		return c.JSON(http.StatusBadRequest, errorBody{ErrorMessage: "Unknown insight"})
	}
	dir := strings.Trim(c.QueryParam("path"), "/")

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{ErrorMessage: "Expected a multipart form"})
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody{ErrorMessage: "No files uploaded"})
	}

	ctx := c.Request().Context()
	out := make([]pixel.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		name := path.Base(fh.Filename)
		if name == "." || name == ".." || name == "/" {
			return c.JSON(http.StatusBadRequest, errorBody{ErrorMessage: "Invalid file name"})
		}
		content, err := readPart(fh)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{ErrorMessage: err.Error()})
		}
		location := path.Join("/", dir, name)
		if err := s.uploads.Save(ctx, store.Upload{
			InsightID:  insight,
			Location:   location,
			FileName:   name,
			Content:    content,
			UploadedAt: store.Now(),
		}); err != nil {
			return fmt.Errorf("save upload %s: %w", name, err)
		}
		out = append(out, pixel.UploadedFile{Name: name, Location: location})
	}
	return c.JSON(http.StatusOK, out)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", fh.Filename, maxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}
