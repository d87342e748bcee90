package models

import (
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
)

// ChargeAction is an operation that moves a charge request between statuses.
type ChargeAction string

const (
	ActionCancel      ChargeAction = "cancel"
	ActionConfirm     ChargeAction = "confirm"
	ActionComplete    ChargeAction = "complete"
	ActionManualMatch ChargeAction = "manual_match"
)

const (
	msgAlreadyCancelled    = "이미 취소된 충전 신청입니다."
	msgCompletedNoCancel   = "이미 완료된 충전 신청은 취소할 수 없습니다."
	msgAlreadyProcessed    = "이미 처리된 충전 신청입니다."
	msgRequestProcessed    = "이미 처리된 충전 요청입니다."
	msgCancelledNoProgress = "취소된 충전 신청입니다."
)

type transitionKey struct {
	from   ChargeStatus
	action ChargeAction
}

type outcome struct {
	next   ChargeStatus
	reject string
}

// transitions is the complete table of legal moves; a missing entry is rejected.
var transitions = map[transitionKey]outcome{
	{ChargePending, ActionCancel}:      {next: ChargeCancelled},
	{ChargePending, ActionConfirm}:     {next: ChargeConfirmed},
	{ChargePending, ActionComplete}:    {next: ChargeCompleted},
	{ChargePending, ActionManualMatch}: {next: ChargeCompleted},

	{ChargeConfirmed, ActionCancel}:      {next: ChargeCancelled},
	{ChargeConfirmed, ActionConfirm}:     {reject: msgAlreadyProcessed},
	{ChargeConfirmed, ActionComplete}:    {next: ChargeCompleted},
	{ChargeConfirmed, ActionManualMatch}: {reject: msgRequestProcessed},

	{ChargeCompleted, ActionCancel}:      {reject: msgCompletedNoCancel},
	{ChargeCompleted, ActionConfirm}:     {reject: msgAlreadyProcessed},
	{ChargeCompleted, ActionComplete}:    {reject: msgAlreadyProcessed},
	{ChargeCompleted, ActionManualMatch}: {reject: msgRequestProcessed},

	{ChargeCancelled, ActionCancel}:      {reject: msgAlreadyCancelled},
	{ChargeCancelled, ActionConfirm}:     {reject: msgCancelledNoProgress},
	{ChargeCancelled, ActionComplete}:    {reject: msgCancelledNoProgress},
	{ChargeCancelled, ActionManualMatch}: {reject: msgCancelledNoProgress},
}

// Transition returns the status a request in status from moves to under action,
// or a conflict error carrying the message shown to the user.
func Transition(from ChargeStatus, action ChargeAction) (ChargeStatus, error) {
	o, ok := transitions[transitionKey{from, action}]
	if !ok {
		return "", apperr.Conflict("처리할 수 없는 충전 신청 상태입니다.")
	}
	if o.reject != "" {
		return "", apperr.Conflict(o.reject)
	}
	return o.next, nil
}
