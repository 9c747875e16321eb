package adapters

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"github.com/TrevorConnolly/ApologyAgent"
	"github.com/TrevorConnolly/ApologyAgent/internal/analyzer"
	"github.com/firebase/genkit/go/core"
	"golang.org/x/sync/singleflight"
)

// GenkitAnalyzerAdapter uses a Genkit flow to implement the Analyzer
// interface. Assessments are cached per severity/relationship pairing so the
// same pairing cannot flip its required-gesture constraints between calls;
// concurrent misses for the same pairing share a single flow run.
type GenkitAnalyzerAdapter struct {
	analyzerFlow *core.Flow[*analyzer.Input, *peaceagent.SituationAssessment, struct{}]
	cache        peaceagent.Cache
	group        singleflight.Group
}

// NewGenkitAnalyzerAdapter creates a new adapter for the analyzer flow.
func NewGenkitAnalyzerAdapter(analyzerFlow *core.Flow[*analyzer.Input, *peaceagent.SituationAssessment, struct{}], cache peaceagent.Cache) *GenkitAnalyzerAdapter {
	return &GenkitAnalyzerAdapter{
		analyzerFlow: analyzerFlow,
		cache:        cache,
	}
}

// Analyze implements the peaceagent.Analyzer interface.
func (a *GenkitAnalyzerAdapter) Analyze(ctx context.Context, request peaceagent.ApologyContext) (*peaceagent.SituationAssessment, error) {
	if a.analyzerFlow == nil {
		return nil, peaceagent.NewConfigurationError("analyzer flow is not configured", nil)
	}

	cacheKey := a.cacheKey(request)
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
			if assessment, ok := cached.(*peaceagent.SituationAssessment); ok {
				return assessment, nil
			}
		}
	}

	result, err, _ := a.group.Do(cacheKey, func() (interface{}, error) {
		input := &analyzer.Input{
			Situation:     request.Situation,
			RecipientName: request.RecipientName,
			Relationship:  string(request.Relationship),
			Severity:      request.Severity,
			Location:      request.Location,
			Preferences:   request.Preferences,
		}

		assessment, err := a.analyzerFlow.Run(ctx, input)
		if err != nil {
			return nil, peaceagent.NewAnalysisError("analyzer flow execution failed", err)
		}
		if err := analyzer.ValidateAssessment(assessment); err != nil {
			return nil, peaceagent.NewAnalysisError("analyzer flow returned a malformed assessment", err)
		}

		if a.cache != nil {
			if err := a.cache.Set(ctx, cacheKey, assessment); err != nil {
				log.Printf("Failed to cache assessment: %v", err)
			}
		}
		return assessment, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*peaceagent.SituationAssessment), nil
}

// cacheKey pins one assessment per severity/relationship pairing. The free
// text does not participate: constraint stability is keyed on the pairing.
func (a *GenkitAnalyzerAdapter) cacheKey(request peaceagent.ApologyContext) string {
	cacheable := struct {
		Relationship peaceagent.RelationshipType `json:"relationship"`
		Severity     int                         `json:"severity"`
	}{
		Relationship: request.Relationship,
		Severity:     request.Severity,
	}

	inputBytes, err := json.Marshal(cacheable)
	if err != nil {
		return fmt.Sprintf("assessment:%s:%d", request.Relationship, request.Severity)
	}
	hasher := sha1.New()
	hasher.Write(inputBytes)
	return "assessment:" + hex.EncodeToString(hasher.Sum(nil))
}
