package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/media"
	"github.com/lumenmedia/mediacenter/internal/service"
)

// Server is the HTTP API over the media service.
type Server struct {
	echo   *echo.Echo
	media  *service.MediaService
	logger *zap.Logger
}

// New builds the echo server and registers routes. mediaRoot is served under
// /media so pipeline fetches and thumbnail links resolve.
func New(mediaSvc *service.MediaService, mediaRoot string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("2G"))

	s := &Server{echo: e, media: mediaSvc, logger: logger.Named("http")}

	v1 := e.Group("/api/v1")
	v1.POST("/media", s.createMedia)
	v1.GET("/media", s.listMedia)
	v1.GET("/media/:id", s.getMedia)

	e.Static("/media", mediaRoot)

	return s
}

// Start listens on addr until the server is shut down.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type mediaResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	File        string `json:"file"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	HLSPlaylist string `json:"hls_playlist,omitempty"`
	PHash       string `json:"phash,omitempty"`
}

func toResponse(m *media.Media) mediaResponse {
	return mediaResponse{
		ID:          m.ID.String(),
		Type:        string(m.Type),
		File:        m.FilePath,
		Thumbnail:   m.ThumbnailPath,
		HLSPlaylist: m.HLSPlaylist,
		PHash:       m.PHash,
	}
}

// createMedia accepts a multipart form with "type" and "file" fields.
// Thumbnail and hash extraction happen synchronously; the response carries
// both or the request fails.
func (s *Server) createMedia(c echo.Context) error {
	mediaType := media.Type(c.FormValue("type"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open upload")
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}

	m, err := s.media.Create(c.Request().Context(), mediaType, fileHeader.Filename, fileBytes)
	if err != nil {
		var extractErr *media.ExtractionError
		switch {
		case errors.Is(err, media.ErrUnsupportedType):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.As(err, &extractErr):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("create media failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusCreated, toResponse(m))
}

func (s *Server) getMedia(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media id")
	}

	m, err := s.media.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "media not found")
		}
		s.logger.Error("get media failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, toResponse(m))
}

func (s *Server) listMedia(c echo.Context) error {
	limit, offset := intQuery(c, "limit", 50), intQuery(c, "offset", 0)

	items, err := s.media.List(c.Request().Context(), limit, offset)
	if err != nil {
		s.logger.Error("list media failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	out := make([]mediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}

func intQuery(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
