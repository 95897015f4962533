// Package handlers is made to handle requests
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ran4na/steg/adapter"
	"github.com/ran4na/steg/audio"
	"github.com/ran4na/steg/config"
	"github.com/ran4na/steg/container"
	"github.com/ran4na/steg/models"
	"github.com/ran4na/steg/stego"
)

var errUnsupportedHost = errors.New("unsupported host")

type StegoHandler struct {
	conf         *config.Config
	audioDecoder *audio.AudioDecoder
}

func NewStegoHandler(conf *config.Config) *StegoHandler {
	if conf == nil {
		conf = config.Default()
	}
	return &StegoHandler{
		conf:         conf,
		audioDecoder: audio.NewAudioDecoder(),
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Steganography API is running",
		"version": "1.0.0",
	})
}

func (h *StegoHandler) EmbedMessage(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	mode, err := h.audioMode(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	coverFile, coverHeader, err := c.Request.FormFile("host_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Host file is required")
		return
	}
	defer coverFile.Close()

	coverData, err := io.ReadAll(coverFile)
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read host file: %v", err))
		return
	}

	cover, err := h.loadCover(coverData)
	if err != nil {
		fail(c, statusFor(err), fmt.Sprintf("Failed to load host file: %v", err))
		return
	}

	if m := cover.metadata; m != nil {
		log.Printf("[%s] %s host %q by %q: %d Hz, %d channels, %.1fs", requestID(c), cover.kind, m.Title, m.Artist, m.SampleRate, m.Channels, m.Duration)
	}

	job := cover.job()
	job.Mode = mode
	closePayload, err := payloadFor(c, job)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer closePayload()

	h.embed(c, adapter.Operation{Format: cover.format, Direction: adapter.Encode}, job, coverHeader.Filename, cover.kind)
}

func (h *StegoHandler) ExtractMessage(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	mode, err := h.audioMode(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	stegoFile, _, err := c.Request.FormFile("stego_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Stego file is required")
		return
	}
	defer stegoFile.Close()

	stegoData, err := io.ReadAll(stegoFile)
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read stego file: %v", err))
		return
	}

	source, err := loadStego(stegoData)
	if err != nil {
		fail(c, statusFor(err), fmt.Sprintf("Failed to load stego file: %v", err))
		return
	}

	var secret bytes.Buffer
	job := source.job()
	job.Mode = mode
	job.Output = &secret

	op := adapter.Operation{Format: source.format, Direction: adapter.Decode}
	report, err := adapter.Run(op, job)
	if err != nil {
		fail(c, statusFor(err), fmt.Sprintf("Failed to extract secret data: %v", err))
		return
	}
	log.Printf("[%s] %v: %d bytes recovered, terminated=%t", requestID(c), op, report.PayloadBytes, report.Terminated)

	if secret.Len() == 0 {
		fail(c, http.StatusNotFound, "No secret data extracted. The file holds no message or was embedded with another audio mode.")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", "attachment; filename=secret.bin")
	c.Header("X-Stego-Terminated", strconv.FormatBool(report.Terminated))
	c.Data(http.StatusOK, "application/octet-stream", secret.Bytes())
}

func (h *StegoHandler) Capacity(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	mode, err := h.audioMode(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	coverFile, _, err := c.Request.FormFile("host_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Host file is required")
		return
	}
	defer coverFile.Close()

	coverData, err := io.ReadAll(coverFile)
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read host file: %v", err))
		return
	}

	cover, err := h.loadCover(coverData)
	if err != nil {
		fail(c, statusFor(err), fmt.Sprintf("Failed to load host file: %v", err))
		return
	}

	job := cover.job()
	job.Mode = mode
	var report *adapter.Report
	if cover.format == adapter.FormatImage {
		report, err = adapter.InspectImage(job)
	} else {
		report, err = adapter.InspectAudio(job)
	}
	if err != nil {
		fail(c, statusFor(err), fmt.Sprintf("Failed to calculate capacity: %v", err))
		return
	}

	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:       true,
		Format:        cover.kind,
		CarrierUnits:  report.CarrierUnits,
		CapacityBytes: max(report.Capacity, 0),
		NominalBits:   cover.nominalBits(),
	})
}

// Synthesize builds a fresh carrier from form parameters and the
// configured defaults, then embeds the payload in it.
func (h *StegoHandler) Synthesize(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	mode, err := h.audioMode(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	job := &adapter.Job{Mode: mode}
	var format adapter.Format
	switch strings.ToLower(c.DefaultPostForm("format", "image")) {
	case "image", "bmp":
		format = adapter.FormatImage
		g, err := h.geometry(c)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		job.Geometry = g
	case "audio", "wav":
		format = adapter.FormatAudio
		p, err := h.audioParams(c)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		job.AudioParams = p
	default:
		fail(c, http.StatusBadRequest, "Format must be image or audio")
		return
	}

	closePayload, err := payloadFor(c, job)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer closePayload()

	h.embed(c, adapter.Operation{Format: format, Direction: adapter.Encode}, job, "carrier", "")
}

func (h *StegoHandler) embed(c *gin.Context, op adapter.Operation, job *adapter.Job, filename, kind string) {
	var out bytes.Buffer
	job.Output = &out

	report, err := adapter.Run(op, job)
	if err != nil {
		fail(c, statusFor(err), fmt.Sprintf("Failed to embed secret data: %v", err))
		return
	}

	id := requestID(c)
	log.Printf("[%s] %v: %d bytes into %d carrier units, PSNR %.2f dB", id, op, report.PayloadBytes, report.CarrierUnits, report.PSNR)
	if !audio.ValidatePSNR(report.PSNR, h.conf.Stego.MinPSNR) {
		log.Printf("[%s] Warning: PSNR %.2f dB is below %.2f dB", id, report.PSNR, h.conf.Stego.MinPSNR)
	}

	ext, contentType := ".bmp", "image/bmp"
	if op.Format == adapter.FormatAudio {
		ext, contentType = ".wav", "audio/wav"
	}
	baseFilename := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	outputFilename := fmt.Sprintf("%s_stego%s", baseFilename, ext)

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputFilename))

	// Include metadata about the steganography operation
	c.Header("X-Stego-Method", "LSB "+op.Format.String())
	c.Header("X-Stego-Capacity", strconv.Itoa(report.Capacity))
	c.Header("X-Stego-PSNR", formatPSNR(report.PSNR))
	if kind != "" {
		c.Header("X-Stego-Host", kind)
	}

	c.Data(http.StatusOK, contentType, out.Bytes())
}

func (h *StegoHandler) parseForm(c *gin.Context) bool {
	limit := h.conf.Server.MaxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.Request.ParseMultipartForm(limit); err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return false
	}
	return true
}

func (h *StegoHandler) audioMode(c *gin.Context) (adapter.AudioMode, error) {
	return adapter.ParseAudioMode(c.DefaultPostForm("audio_mode", h.conf.Audio.Mode))
}

func (h *StegoHandler) geometry(c *gin.Context) (adapter.ImageGeometry, error) {
	width, err := formUint(c, "width", uint64(h.conf.Image.Width), 32)
	if err != nil {
		return adapter.ImageGeometry{}, err
	}
	height, err := formUint(c, "height", uint64(h.conf.Image.Height), 32)
	if err != nil {
		return adapter.ImageGeometry{}, err
	}
	bpp, err := formUint(c, "bits_per_pixel", uint64(h.conf.Image.BitsPerPixel), 16)
	if err != nil {
		return adapter.ImageGeometry{}, err
	}
	return adapter.ImageGeometry{Width: uint32(width), Height: uint32(height), BitsPerPixel: uint16(bpp)}, nil
}

func (h *StegoHandler) audioParams(c *gin.Context) (adapter.AudioParams, error) {
	var p adapter.AudioParams
	channels, err := formUint(c, "channels", uint64(h.conf.Audio.Channels), 16)
	if err != nil {
		return p, err
	}
	rate, err := formUint(c, "sample_rate", uint64(h.conf.Audio.SampleRate), 32)
	if err != nil {
		return p, err
	}
	bits, err := formUint(c, "bits_per_sample", uint64(h.conf.Audio.BitsPerSample), 16)
	if err != nil {
		return p, err
	}
	samples, err := formUint(c, "samples", 0, 32)
	if err != nil {
		return p, err
	}
	return adapter.AudioParams{
		Channels:      uint16(channels),
		SampleRate:    uint32(rate),
		BitsPerSample: uint16(bits),
		Samples:       uint32(samples),
	}, nil
}

func formUint(c *gin.Context, name string, def uint64, bitSize int) (uint64, error) {
	s := c.PostForm(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %q", name, s)
	}
	return v, nil
}

// payloadFor sets the job payload from secret_file or message. With
// stream=true the secret file is embedded as it is read.
func payloadFor(c *gin.Context, job *adapter.Job) (func(), error) {
	noop := func() {}
	stream := c.PostForm("stream") == "true"

	secretFile, _, err := c.Request.FormFile("secret_file")
	switch {
	case err == nil:
		if stream {
			job.PayloadStream = secretFile
			return func() { secretFile.Close() }, nil
		}
		defer secretFile.Close()
		data, err := io.ReadAll(secretFile)
		if err != nil {
			return noop, fmt.Errorf("Failed to read secret file: %v", err)
		}
		job.Payload = data
		return noop, nil
	case !errors.Is(err, http.ErrMissingFile):
		return noop, fmt.Errorf("Failed to read secret file: %v", err)
	}

	message, ok := c.GetPostForm("message")
	if !ok || message == "" {
		return noop, errors.New("Secret file or message is required")
	}
	if stream {
		job.PayloadStream = strings.NewReader(message)
		return noop, nil
	}
	job.Payload = []byte(message)
	return noop, nil
}

func statusFor(err error) int {
	for _, target := range []error{
		errUnsupportedHost,
		container.ErrBadMagic,
		container.ErrNotPCM,
		container.ErrUnsupportedCompression,
		container.ErrUnsupportedBitDepth,
		container.ErrUnsupportedSampleWidth,
		container.ErrTruncatedRead,
		container.ErrInvalidGeometry,
		stego.ErrPayloadTooLarge,
		stego.ErrCarrierExhausted,
		multipart.ErrMessageTooLarge,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, container.ErrAllocationFailure) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", psnr)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, models.StegoResponse{
		Success:   false,
		Message:   message,
		RequestID: requestID(c),
	})
}
