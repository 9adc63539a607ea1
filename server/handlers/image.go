package handlers

import (
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"emergencycore/server/middleware"
)

// imageField is the multipart form field carrying the damage image.
const imageField = "image"

// maxImageMemory bounds how much of the multipart body is held in memory
// while parsing; larger uploads spill to temporary files.
const maxImageMemory = 10 << 20

const noImageText = "🖼️ No image uploaded. Please provide a damage assessment image."

// ImageHandler answers the damage assessment panel. The assessment is a
// stub: the image is decoded, its dimensions are reported, and nothing is
// stored or analyzed further.
type ImageHandler struct {
	logger *zap.Logger
}

// NewImageHandler creates an image handler.
func NewImageHandler(logger *zap.Logger) *ImageHandler {
	return &ImageHandler{logger: logger}
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(zap.String("request_id", requestID))

	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		writeReport(w, logger, noImageText)
		return
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		writeReport(w, logger, noImageText)
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		logger.Warn("image decode failed",
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		writeReport(w, logger, fmt.Sprintf("🚨 Image Processing Error: %s", err))
		return
	}

	bounds := img.Bounds()
	text := fmt.Sprintf(`🖼️ Damage Assessment Image Analysis
Image Uploaded Successfully
📐 Dimensions: %d x %d pixels
📊 Processing Status: Preliminary assessment in progress
🔍 Recommendation: Detailed expert evaluation required

⚠️ Note: This is an automated initial assessment.
Full analysis requires professional on-site inspection.`,
		bounds.Dx(), bounds.Dy(),
	)

	writeReport(w, logger, text)
}
