package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"slideflow/internal/pkg/aiclient"
)

// GenerationSpec describes one content-generation request. Script may be
// pre-filled (project-mode queues reuse a project's saved script).
type GenerationSpec struct {
	Topic       string
	ContentType string
	ImageStyle  string
	Script      string
}

// GenerationResult is what the run executor persists on success.
type GenerationResult struct {
	Script        string
	Slides        []string
	ImagePaths    []string
	NarrationPath string
}

// Generator produces a script and slide images for a topic. The run executor
// and the sample endpoint both depend on this interface.
type Generator interface {
	GenerateContent(ctx context.Context, spec GenerationSpec) (*GenerationResult, error)
}

type generator struct {
	ai *aiclient.Client
	r2 *R2Service
}

func NewGenerator(ai *aiclient.Client, r2 *R2Service) Generator {
	return &generator{ai: ai, r2: r2}
}

const scriptPromptTemplate = `Write a short philosophy slideshow script about "%s".
Return 5 to 8 slides. Each slide is one line starting with "SLIDE:" followed by
a single aphoristic sentence. No other text.`

func (g *generator) GenerateContent(ctx context.Context, spec GenerationSpec) (*GenerationResult, error) {
	script := spec.Script
	if script == "" {
		generated, err := g.ai.GenerateScript(ctx, fmt.Sprintf(scriptPromptTemplate, spec.Topic))
		if err != nil {
			return nil, fmt.Errorf("script generation: %w", err)
		}
		script = generated
	}

	slides := SplitScript(script)
	if len(slides) == 0 {
		return nil, fmt.Errorf("script generation: no slides in script")
	}

	result := &GenerationResult{Script: script, Slides: slides}

	for i, slide := range slides {
		prompt := fmt.Sprintf("%s. Style: %s. Text overlay space at the bottom.", slide, spec.ImageStyle)
		img, err := g.ai.GenerateImage(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("image generation for slide %d: %w", i+1, err)
		}

		key := fmt.Sprintf("slides/%s/%02d", uuid.New().String(), i+1)
		url, err := g.r2.UploadAsset(ctx, key, img)
		if err != nil {
			return nil, fmt.Errorf("slide upload for slide %d: %w", i+1, err)
		}
		result.ImagePaths = append(result.ImagePaths, url)
	}

	// Video content types carry a voice-over reading of the full script.
	if spec.ContentType == "video" {
		audio, err := g.ai.GenerateNarration(ctx, strings.Join(slides, "\n"))
		if err != nil {
			return nil, fmt.Errorf("narration generation: %w", err)
		}
		url, err := g.r2.UploadAsset(ctx, fmt.Sprintf("narration/%s", uuid.New().String()), audio)
		if err != nil {
			return nil, fmt.Errorf("narration upload: %w", err)
		}
		result.NarrationPath = url
	}

	return result, nil
}

// SplitScript extracts the slide lines from a generated script. Lines marked
// "SLIDE:" are preferred; a plain paragraph-per-slide script is the fallback.
func SplitScript(script string) []string {
	var slides []string
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "SLIDE:"); ok {
			if text := strings.TrimSpace(rest); text != "" {
				slides = append(slides, text)
			}
		}
	}
	if len(slides) > 0 {
		return slides
	}

	for _, para := range strings.Split(script, "\n\n") {
		if text := strings.TrimSpace(para); text != "" {
			slides = append(slides, text)
		}
	}
	return slides
}
