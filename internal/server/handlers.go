package server

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	collage "github.com/menta2k/collage-maker"
	"github.com/menta2k/collage-maker/pkg/errors"
	"github.com/menta2k/collage-maker/pkg/processing"
	"github.com/menta2k/collage-maker/pkg/templates"
	"github.com/menta2k/collage-maker/pkg/types"
)

// Handler serves the collage endpoints
type Handler struct {
	maker        *collage.Maker
	logger       *log.Logger
	maxDimension int
}

// NewHandler creates a handler around maker. Requested widths and heights
// above maxDimension are rejected; zero means DefaultMaxDimension.
func NewHandler(maker *collage.Maker, logger *log.Logger, maxDimension int) *Handler {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Handler{maker: maker, logger: logger, maxDimension: maxDimension}
}

// Justified packs the uploaded "images" into a justified collage
func (h *Handler) Justified(c *gin.Context) {
	preset := types.Preset{Width: 800, RowHeight: 300}
	var err error
	if preset.Width, err = queryInt(c, "width", preset.Width); err != nil {
		h.fail(c, err)
		return
	}
	if preset.RowHeight, err = queryInt(c, "height", preset.RowHeight); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.checkSize(preset.Width, preset.RowHeight); err != nil {
		h.fail(c, err)
		return
	}
	format, err := h.format(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case tooLarge(err):
		h.fail(c, errors.Wrap(errors.ErrCodePayloadTooLarge, err, "upload too large"))
		return
	case err == nil:
		files = form.File["images"]
	}
	if len(files) == 0 {
		h.fail(c, errors.New(errors.ErrCodeEmptyInput, "no images uploaded in field \"images\""))
		return
	}

	images := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := h.decode(f)
		if err != nil {
			h.fail(c, err)
			return
		}
		images = append(images, img)
	}

	canvas, layout, err := h.maker.Justify(images, preset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("X-Collage-Rows", strconv.Itoa(len(layout.Rows)))
	c.Header("X-Collage-Row-Height", strconv.Itoa(layout.RowHeight))
	h.write(c, h.maker.Decorate(canvas, "", true), format)
}

// FaceCrop crops the uploaded "image" around its dominant face
func (h *Handler) FaceCrop(c *gin.Context) {
	w, err := queryInt(c, "width", 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	ht, err := queryInt(c, "height", 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	if w <= 0 || ht <= 0 {
		h.fail(c, errors.New(errors.ErrCodeInvalidInput, "width and height are required"))
		return
	}
	if err := h.checkSize(w, ht); err != nil {
		h.fail(c, err)
		return
	}
	format, err := h.format(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	fh, err := c.FormFile("image")
	if tooLarge(err) {
		h.fail(c, errors.Wrap(errors.ErrCodePayloadTooLarge, err, "upload too large"))
		return
	}
	if err != nil {
		h.fail(c, errors.New(errors.ErrCodeEmptyInput, "no image uploaded in field \"image\""))
		return
	}
	img, err := h.decode(fh)
	if err != nil {
		h.fail(c, err)
		return
	}

	crop, result, err := h.maker.Crop(c.Request.Context(), img, types.Size{W: w, H: ht})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("X-Face-Fallback", strconv.FormatBool(result.Fallback))
	c.Header("X-Crop-Window", fmt.Sprintf("%d,%d,%d,%d", result.Window.X1, result.Window.Y1, result.Window.OutW, result.Window.OutH))
	h.write(c, crop, format)
}

// Templates lists the fixed layouts and what they need
func (h *Handler) Templates(c *gin.Context) {
	type entry struct {
		Name     string             `json:"name"`
		Width    int                `json:"width"`
		Height   int                `json:"height"`
		Requires map[types.Kind]int `json:"requires"`
	}
	var out []entry
	for _, t := range templates.Catalogue() {
		out = append(out, entry{Name: t.Name, Width: t.Width, Height: t.Height, Requires: t.Requires()})
	}
	for _, s := range templates.Splits() {
		out = append(out, entry{Name: s.Name, Width: s.Width, Height: s.Height,
			Requires: map[types.Kind]int{types.KindHorizontal: 2}})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

// checkSize bounds the canvas a request can make the server allocate
func (h *Handler) checkSize(w, ht int) error {
	if w <= 0 || ht <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width and height must be positive, got %dx%d", w, ht)
	}
	if w > h.maxDimension || ht > h.maxDimension {
		return errors.New(errors.ErrCodeInvalidInput, "%dx%d exceeds the %d pixel limit", w, ht, h.maxDimension)
	}
	return nil
}

func (h *Handler) format(c *gin.Context) (string, error) {
	return processing.NormalizeFormat(c.DefaultQuery("format", h.maker.Options().Format))
}

func (h *Handler) decode(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open upload %s", fh.Filename)
	}
	defer f.Close()

	img, err := h.maker.Processor().DecodeOriented(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", fh.Filename)
	}
	maxDim := h.maker.Options().MaxDimension
	return processing.Thumbnail(img, maxDim, maxDim), nil
}

func (h *Handler) write(c *gin.Context, img image.Image, format string) {
	opts := h.maker.Options()
	var buf bytes.Buffer
	if err := h.maker.Processor().Encode(&buf, img, format, opts.Quality, opts.Lossless); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, processing.ContentType(format), buf.Bytes())
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errors.UserMessage(err), "code": code})
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeEmptyInput, errors.ErrCodeInvalidInput,
		errors.ErrCodeUnsupportedFormat, errors.ErrCodeInvalidCropBounds:
		return http.StatusBadRequest
	case errors.ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeNonConvergence, errors.ErrCodeInsufficientImages:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeDetectorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return err != nil && stderrors.As(err, &mbe)
}

// limitBody caps request bodies at limit bytes. Declared lengths over the
// limit are rejected up front; streamed bodies fail when the limit is read.
func limitBody(h *Handler, limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			h.fail(c, errors.New(errors.ErrCodePayloadTooLarge,
				"request body of %d bytes exceeds the %d byte limit", c.Request.ContentLength, limit))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// requestLogger tags each request with an id and logs its outcome
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		c.Next()

		logger.Info("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start).Round(time.Millisecond))
	}
}
