package dataset

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"fms-squat-go/internal/types"
)

type column int

const (
	colMedia column = iota
	colMime
	colPain
	colMinKnee
	colMaxKnee
	colTime
	colDeepest
	colDepthReached
	colGoodDepth
	colSquats
	colDetection
	colFeedback
	numColumns
)

// classify maps a header cell to a manifest column. Order matters:
// "time_at_deepest_point" is a time and "good_depth_reached" is not the
// below-parallel flag.
func classify(header string) (column, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	switch {
	case strings.Contains(h, "mime"):
		return colMime, true
	case strings.Contains(h, "pain"):
		return colPain, true
	case strings.Contains(h, "min_knee"):
		return colMinKnee, true
	case strings.Contains(h, "max_knee"):
		return colMaxKnee, true
	case strings.Contains(h, "time"):
		return colTime, true
	case strings.Contains(h, "deepest"):
		return colDeepest, true
	case strings.Contains(h, "good_depth"):
		return colGoodDepth, true
	case strings.Contains(h, "depth_reached") || strings.Contains(h, "below_parallel"):
		return colDepthReached, true
	case strings.Contains(h, "squat"):
		return colSquats, true
	case strings.Contains(h, "detection"):
		return colDetection, true
	case strings.Contains(h, "feedback"):
		return colFeedback, true
	case strings.Contains(h, "media") || strings.Contains(h, "video") || strings.Contains(h, "image") ||
		strings.Contains(h, "file") || strings.Contains(h, "path"):
		return colMedia, true
	}
	return 0, false
}

// Load reads a screening manifest from the first sheet of an xlsx workbook.
// Columns are found by header name; rows without a media path are skipped.
func Load(path string) ([]types.ManifestRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("manifest has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("manifest has no data rows")
	}

	var idx [numColumns]int
	for i := range idx {
		idx[i] = -1
	}
	for i, h := range rows[0] {
		if col, ok := classify(h); ok && idx[col] == -1 {
			idx[col] = i
		}
	}
	if idx[colMedia] == -1 {
		return nil, fmt.Errorf("manifest has no media column (expected a header like media, video, image, file or path)")
	}

	var out []types.ManifestRecord
	for i, r := range rows[1:] {
		cell := func(c column) string {
			if idx[c] >= 0 && idx[c] < len(r) {
				return strings.TrimSpace(r[idx[c]])
			}
			return ""
		}

		media := cell(colMedia)
		if media == "" {
			continue
		}
		rec := types.ManifestRecord{
			Row:       i + 2,
			MediaPath: media,
			MimeType:  cell(colMime),
		}
		if pain := parseBool(cell(colPain)); pain != nil {
			rec.ReportedPain = *pain
		}

		pose := &types.PoseMetrics{
			MinKneeAngle:              parseFloat(cell(colMinKnee)),
			MaxKneeAngle:              parseFloat(cell(colMaxKnee)),
			DepthReachedBelowParallel: parseBool(cell(colDepthReached)),
			GoodDepthReached:          parseBool(cell(colGoodDepth)),
			KneeAngleAtDeepestPoint:   parseFloat(cell(colDeepest)),
			TimeAtDeepestPointSec:     parseFloat(cell(colTime)),
			SquatsDetected:            parseInt(cell(colSquats)),
			PersonDetectionRate:       parseFloat(cell(colDetection)),
			FeedbackDuringRecording:   splitFeedback(cell(colFeedback)),
		}
		if pose.Present() {
			rec.PoseMetrics = pose
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadMedia reads the file behind rec and base64-encodes it. Relative paths
// resolve against baseDir. A blank MIME type is sniffed from the content.
func LoadMedia(rec types.ManifestRecord, baseDir string) (types.Media, error) {
	path := rec.MediaPath
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Media{}, fmt.Errorf("read media: %w", err)
	}
	if len(data) == 0 {
		return types.Media{}, fmt.Errorf("media file %s is empty", path)
	}

	mime := rec.MimeType
	if mime == "" {
		mime, _, _ = strings.Cut(mimetype.Detect(data).String(), ";")
	}
	return types.Media{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mime,
	}, nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	f := parseFloat(s)
	if f == nil || *f != float64(int(*f)) {
		return nil
	}
	v := int(*f)
	return &v
}

func parseBool(s string) *bool {
	var v bool
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1", "x":
		v = true
	case "false", "no", "n", "0":
		v = false
	default:
		return nil
	}
	return &v
}

func splitFeedback(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
