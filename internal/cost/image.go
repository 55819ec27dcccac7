package cost

import "github.com/tidwall/gjson"

// BaseImageCost is the base token cost for a 256x256 generation.
const BaseImageCost = 1000

// Image size and default constants.
const (
	defaultImageSize = "1024x1024"
)

// Image operation types.
const (
	OpGeneration = "generation"
	OpVariation  = "variation"
	OpEdit       = "edit"
)

// ImageBreakdown records how an image estimate was composed, for
// observability.
type ImageBreakdown struct {
	BaseCost   int64  `json:"base_cost"`
	NumImages  int64  `json:"num_images"`
	PromptCost int64  `json:"prompt_cost"`
	Size       string `json:"size"`
	Type       string `json:"type"`
}

// EstimateImage computes the cost of an image request:
// adjustForOperationType(adjustForResolution(base, size)) * n + tokens(prompt).
// Upstream reports no token usage for images, so the same calculation is
// also used post-response by the usage recorder.
func (e *Estimator) EstimateImage(body []byte) Estimate {
	numImages := int64(1)
	if n := gjson.GetBytes(body, "n"); n.Exists() {
		numImages = n.Int()
	}
	size := defaultImageSize
	if s := gjson.GetBytes(body, "size"); s.Exists() {
		size = s.String()
	}
	prompt := gjson.GetBytes(body, "prompt").String()

	// Variation takes precedence over edit when both markers are present.
	hasImage := gjson.GetBytes(body, "image").Exists()
	isVariation := hasImage && gjson.GetBytes(body, "variations").Exists()
	isEdit := hasImage && gjson.GetBytes(body, "mask").Exists()

	baseCost := adjustForResolution(BaseImageCost, size)
	baseCost = adjustForOperationType(baseCost, isVariation, isEdit)
	promptCost := int64(e.counter.Count(prompt))

	opType := OpGeneration
	if isVariation {
		opType = OpVariation
	} else if isEdit {
		opType = OpEdit
	}

	return Estimate{
		TotalTokens: baseCost*numImages + promptCost,
		Breakdown: &ImageBreakdown{
			BaseCost:   baseCost,
			NumImages:  numImages,
			PromptCost: promptCost,
			Size:       size,
			Type:       opType,
		},
	}
}

// adjustForResolution scales the base cost by resolution. Unrecognized
// sizes fall back to the base cost.
func adjustForResolution(baseCost int64, size string) int64 {
	switch size {
	case "256x256":
		return baseCost
	case "512x512":
		return baseCost * 2
	case "1024x1024":
		return baseCost * 4
	case "1792x1024", "1024x1792":
		return baseCost * 6
	default:
		return baseCost
	}
}

// adjustForOperationType discounts variations to 50% and edits to 75% of
// the resolution-adjusted base.
func adjustForOperationType(baseCost int64, isVariation, isEdit bool) int64 {
	if isVariation {
		return int64(float64(baseCost) * 0.5)
	}
	if isEdit {
		return int64(float64(baseCost) * 0.75)
	}
	return baseCost
}
