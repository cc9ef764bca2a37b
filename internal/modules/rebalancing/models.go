package rebalancing

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/shopspring/decimal"

	"github.com/menabung/rebalancer/internal/domain"
)

// RebalanceSuggestion proposes moving part of the portfolio between two
// strategies. Amount is in smallest units (2 implied decimals) and is
// serialized as a JSON string.
type RebalanceSuggestion struct {
	ID               string             `json:"id" msgpack:"id"`
	FromStrategy     domain.StrategyKey `json:"fromStrategy" msgpack:"fromStrategy"`
	ToStrategy       domain.StrategyKey `json:"toStrategy" msgpack:"toStrategy"`
	Amount           decimal.Decimal    `json:"amount" msgpack:"amount"`
	PercentageToMove float64            `json:"percentageToMove" msgpack:"percentageToMove"`
	Reason           string             `json:"reason" msgpack:"reason"`
	PotentialGain    float64            `json:"potentialGain" msgpack:"potentialGain"`
	RiskImpact       domain.RiskImpact  `json:"riskImpact" msgpack:"riskImpact"`
	Confidence       float64            `json:"confidence" msgpack:"confidence"`
	Timestamp        int64              `json:"timestamp" msgpack:"timestamp"`
	Dismissed        bool               `json:"dismissed" msgpack:"dismissed"`
}

// RebalanceAnalysis is the full analyzer output for one allocation.
type RebalanceAnalysis struct {
	CurrentAllocation   domain.Allocation     `json:"currentAllocation"`
	SuggestedAllocation domain.Allocation     `json:"suggestedAllocation"`
	CurrentAPY          float64               `json:"currentAPY"`
	PotentialAPY        float64               `json:"potentialAPY"`
	APYGain             float64               `json:"apyGain"`
	Suggestions         []RebalanceSuggestion `json:"suggestions"`
	ShouldRebalance     bool                  `json:"shouldRebalance"`
	PrimaryReason       string                `json:"primaryReason"`
	Timestamp           int64                 `json:"timestamp"`
}

// Config holds the caller-tunable analysis parameters.
type Config struct {
	MinAPYGain        float64            `json:"minAPYGain" default:"0.5" validate:"gte=0"`
	MinMoveAmount     int64              `json:"minMoveAmount" default:"100" validate:"gte=0"` // smallest units, 100 = 1.00
	MaxMovePercentage float64            `json:"maxMovePercentage" default:"25" validate:"gt=0,lte=100"`
	GasThreshold      float64            `json:"gasThreshold" default:"5" validate:"gte=0"` // USD
	RiskProfile       domain.RiskProfile `json:"riskProfile" default:"balanced" validate:"oneof=conservative balanced aggressive"`
}

// DefaultConfig returns the config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// ConfigOverrides carries optional per-request changes to Config.
type ConfigOverrides struct {
	MinAPYGain        *float64            `json:"minAPYGain,omitempty" validate:"omitempty,gte=0"`
	MinMoveAmount     *int64              `json:"minMoveAmount,omitempty" validate:"omitempty,gte=0"`
	MaxMovePercentage *float64            `json:"maxMovePercentage,omitempty" validate:"omitempty,gt=0,lte=100"`
	GasThreshold      *float64            `json:"gasThreshold,omitempty" validate:"omitempty,gte=0"`
	RiskProfile       *domain.RiskProfile `json:"riskProfile,omitempty" validate:"omitempty,oneof=conservative balanced aggressive"`
}

// Apply returns cfg with every non-nil override set.
func (o *ConfigOverrides) Apply(cfg Config) Config {
	if o == nil {
		return cfg
	}
	if o.MinAPYGain != nil {
		cfg.MinAPYGain = *o.MinAPYGain
	}
	if o.MinMoveAmount != nil {
		cfg.MinMoveAmount = *o.MinMoveAmount
	}
	if o.MaxMovePercentage != nil {
		cfg.MaxMovePercentage = *o.MaxMovePercentage
	}
	if o.GasThreshold != nil {
		cfg.GasThreshold = *o.GasThreshold
	}
	if o.RiskProfile != nil {
		cfg.RiskProfile = *o.RiskProfile
	}
	return cfg
}

// ExecutionStatus tracks an executed suggestion.
type ExecutionStatus string

const (
	StatusPending         ExecutionStatus = "pending"
	StatusSimulating      ExecutionStatus = "simulating"
	StatusWaitingApproval ExecutionStatus = "waiting_approval"
	StatusExecuting       ExecutionStatus = "executing"
	StatusCompleted       ExecutionStatus = "completed"
	StatusFailed          ExecutionStatus = "failed"
)

var statusTransitions = map[ExecutionStatus][]ExecutionStatus{
	StatusPending:         {StatusSimulating, StatusFailed},
	StatusSimulating:      {StatusWaitingApproval, StatusFailed},
	StatusWaitingApproval: {StatusExecuting, StatusFailed},
	StatusExecuting:       {StatusCompleted, StatusFailed},
}

// Valid reports whether s is a known status.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSimulating, StatusWaitingApproval, StatusExecuting, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether s may move to next.
func (s ExecutionStatus) CanTransition(next ExecutionStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RebalanceExecution is the on-chain execution of one suggestion.
type RebalanceExecution struct {
	Suggestion   RebalanceSuggestion `json:"suggestion" msgpack:"suggestion"`
	TxHash       string              `json:"txHash,omitempty" msgpack:"txHash"`
	Status       ExecutionStatus     `json:"status" msgpack:"status" validate:"required"`
	Error        string              `json:"error,omitempty" msgpack:"error"`
	EstimatedGas *decimal.Decimal    `json:"estimatedGas,omitempty" msgpack:"estimatedGas"`
	ActualGas    *decimal.Decimal    `json:"actualGas,omitempty" msgpack:"actualGas"`
	StartedAt    int64               `json:"startedAt" msgpack:"startedAt"`
	CompletedAt  int64               `json:"completedAt,omitempty" msgpack:"completedAt"`
}

// Advance moves the execution to next, stamping CompletedAt on terminal states.
func (e *RebalanceExecution) Advance(next ExecutionStatus, atMillis int64) error {
	if !e.Status.CanTransition(next) {
		return fmt.Errorf("invalid execution transition %s -> %s", e.Status, next)
	}
	e.Status = next
	if next.Terminal() {
		e.CompletedAt = atMillis
	}
	return nil
}

// RebalanceHistory records an executed rebalance and its outcome.
type RebalanceHistory struct {
	Execution        RebalanceExecution `json:"execution" msgpack:"execution"`
	BeforeAllocation domain.Allocation  `json:"beforeAllocation" msgpack:"beforeAllocation"`
	AfterAllocation  domain.Allocation  `json:"afterAllocation" msgpack:"afterAllocation"`
	BeforeAPY        float64            `json:"beforeAPY" msgpack:"beforeAPY"`
	AfterAPY         float64            `json:"afterAPY" msgpack:"afterAPY"`
	ActualGain       float64            `json:"actualGain" msgpack:"actualGain"`
}

// RebalanceCheck is the verdict of ShouldCheckRebalance.
type RebalanceCheck struct {
	ShouldCheck bool   `json:"shouldCheck"`
	Reason      string `json:"reason"`
}

// Urgency of a rebalance call to action.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// CTA is the headline shown to the user for an analysis.
type CTA struct {
	Headline string  `json:"headline"`
	Subtext  string  `json:"subtext"`
	Urgency  Urgency `json:"urgency"`
}

// SuggestionExplanation is the detail view for one suggestion.
type SuggestionExplanation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      []string `json:"impact"`
	Warnings    []string `json:"warnings"`
}

// HistoricalGains summarizes completed rebalances.
type HistoricalGains struct {
	TotalGain   float64 `json:"totalGain"`
	AvgGain     float64 `json:"avgGain"`
	SuccessRate float64 `json:"successRate"`
}
