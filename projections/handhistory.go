package projections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/google/uuid"

	"example.com/cardroom/services/orchestrator/config"
	"example.com/cardroom/services/orchestrator/domain"
	"example.com/cardroom/services/orchestrator/saga"
)

// Constants for index names
const (
	HandHistoryIndex = "hand-history"
	PotAwardsIndex   = "pot-awards"
	SettlementsIndex = "settlements"
)

// HandHistoryProjector indexes settled hands for search. It rides the saga
// router as a subscriber that never produces commands.
type HandHistoryProjector struct {
	elasticClient *elasticsearch.Client
	cfg           config.Config
}

// NewHandHistoryProjector creates a new hand history projector.
func NewHandHistoryProjector(elasticClient *elasticsearch.Client, cfg config.Config) *HandHistoryProjector {
	return &HandHistoryProjector{
		elasticClient: elasticClient,
		cfg:           cfg,
	}
}

// Name implements saga.Saga.
func (p *HandHistoryProjector) Name() string { return "hand-history-projector" }

// EventTypes implements saga.Saga.
func (p *HandHistoryProjector) EventTypes() []string {
	return []string{
		domain.PotAwardedType,
		domain.HandCompleteType,
		domain.HandEndedType,
	}
}

// Handle implements saga.Saga. It indexes documents and returns no commands.
func (p *HandHistoryProjector) Handle(ctx context.Context, sc *saga.Context) ([]*domain.CommandBook, error) {
	for _, page := range sc.Events.Pages {
		var err error
		switch e := page.Event.(type) {
		case domain.PotAwardedEvent:
			err = p.projectPotAwarded(ctx, sc, e, page.CreatedAt)
		case domain.HandCompleteEvent:
			err = p.projectHandComplete(ctx, sc, e, page.CreatedAt)
		case domain.HandEndedEvent:
			err = p.projectHandEnded(ctx, sc, e, page.CreatedAt)
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// potAwardDoc is one pot payout as indexed in Elasticsearch.
type potAwardDoc struct {
	HandRoot   string    `json:"hand_root"`
	Position   int       `json:"position"`
	PlayerRoot string    `json:"player_root"`
	Amount     int64     `json:"amount"`
	PotType    string    `json:"pot_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// handHistoryDoc is a settled hand as indexed in Elasticsearch.
type handHistoryDoc struct {
	HandRoot   string             `json:"hand_root"`
	TableRoot  string             `json:"table_root"`
	HandNumber uint64             `json:"hand_number"`
	Results    []domain.PotResult `json:"results"`
	Timestamp  time.Time          `json:"timestamp"`
}

// settlementDoc is one hand's net stack movement as indexed in Elasticsearch.
type settlementDoc struct {
	TableRoot    string           `json:"table_root"`
	HandNumber   uint64           `json:"hand_number"`
	StackChanges map[string]int64 `json:"stack_changes"`
	Timestamp    time.Time        `json:"timestamp"`
}

func (p *HandHistoryProjector) projectPotAwarded(ctx context.Context, sc *saga.Context, e domain.PotAwardedEvent, at time.Time) error {
	doc := potAwardDoc{
		HandRoot:   sc.Root,
		Position:   e.Position,
		PlayerRoot: e.PlayerRoot,
		Amount:     e.Amount,
		PotType:    e.PotType,
		Timestamp:  at,
	}
	return p.index(ctx, PotAwardsIndex, uuid.New().String(), doc)
}

func (p *HandHistoryProjector) projectHandComplete(ctx context.Context, sc *saga.Context, e domain.HandCompleteEvent, at time.Time) error {
	doc := handHistoryDoc{
		HandRoot:   sc.Root,
		TableRoot:  e.TableRoot,
		HandNumber: e.HandNumber,
		Results:    e.Results,
		Timestamp:  at,
	}
	return p.index(ctx, HandHistoryIndex, sc.Root, doc)
}

func (p *HandHistoryProjector) projectHandEnded(ctx context.Context, sc *saga.Context, e domain.HandEndedEvent, at time.Time) error {
	doc := settlementDoc{
		TableRoot:    sc.Root,
		HandNumber:   e.HandNumber,
		StackChanges: e.StackChanges,
		Timestamp:    at,
	}
	docID := fmt.Sprintf("%s-%d", sc.Root, e.HandNumber)
	return p.index(ctx, SettlementsIndex, docID, doc)
}

// index marshals and indexes one document.
func (p *HandHistoryProjector) index(ctx context.Context, indexName, docID string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	index := FormatIndex(indexName, p.cfg)
	res, err := p.elasticClient.Index(
		index,
		bytes.NewReader(body),
		p.elasticClient.Index.WithDocumentID(docID),
		p.elasticClient.Index.WithRefresh("true"),
		p.elasticClient.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document in Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index document in Elasticsearch: %s", res.String())
	}

	return nil
}
