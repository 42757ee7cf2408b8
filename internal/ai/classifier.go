package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/milewatcher/pkg/logger"
)

// Verdict is the classifier's decision for one article
type Verdict struct {
	Relevant bool
	Summary  string
}

// Classifier decides whether article text describes the configured
// promotion, using Claude as the judge
type Classifier struct {
	client           *Client
	promoDescription string
	log              *logger.Logger
}

// NewClassifier creates a classifier for the given promotion description
func NewClassifier(client *Client, promoDescription string, log *logger.Logger) *Classifier {
	return &Classifier{
		client:           client,
		promoDescription: promoDescription,
		log:              log.WithComponent("classifier"),
	}
}

// Classify asks the model whether the text describes the promotion.
// A remote failure is returned as an error so the caller can record it as a
// distinct lifecycle state instead of a confirmed negative.
func (c *Classifier) Classify(ctx context.Context, text string) (*Verdict, error) {
	prompt := fmt.Sprintf(promoDetectionPrompt, c.promoDescription, text)

	response, err := c.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("promotion check failed: %w", err)
	}

	verdict := parseVerdict(response)
	c.log.Info().
		Bool("relevant", verdict.Relevant).
		Str("summary", verdict.Summary).
		Msg("Promotion check completed")

	return verdict, nil
}

// parseVerdict scans the response for the two recognized line prefixes,
// case-normalizing the boolean token. Lines with other prefixes are ignored
// (the model sometimes adds commentary). Missing boolean line defaults to
// false; missing summary line defaults to "N/A".
func parseVerdict(response string) *Verdict {
	verdict := &Verdict{Summary: noSummary}

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, booleanLinePrefix):
			token := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, booleanLinePrefix)))
			verdict.Relevant = token == "TRUE"
		case strings.HasPrefix(line, summaryLinePrefix):
			verdict.Summary = strings.TrimSpace(strings.TrimPrefix(line, summaryLinePrefix))
		}
	}

	return verdict
}
