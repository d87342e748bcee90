// Package contracts handles creator signatures on campaign contracts.
package contracts

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

const (
	ContractsTable     = "contracts"
	SignatureLogsTable = "contract_signature_logs"
	// SignatureBucket holds uploaded signature images under signatures/.
	SignatureBucket = "contracts"
)

// Contract states.
const (
	StatusSent    = "sent"
	StatusSigned  = "signed"
	StatusExpired = "expired"
)

// Signature types. Drawn and image signatures carry image data; a stamp carries a URL.
const (
	SignatureStamp = "stamp"
	SignatureImage = "image"
	SignatureDraw  = "draw"
)

// Register adds the contract functions to r.
func Register(r *handlers.Router) {
	r.Handle(SignContract())
}

type contract struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	CreatorID string     `json:"creator_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Expired reports whether c can no longer be signed at now. A contract without an
// expiry never expires.
func (c contract) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

type signRequest struct {
	ContractID    string `json:"contractId" validate:"required"`
	SignatureType string `json:"signatureType" validate:"required,oneof=stamp image draw"`
	SignatureData string `json:"signatureData" validate:"required"`
	IPAddress     string `json:"ipAddress"`
	UserAgent     string `json:"userAgent"`
}

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// DecodeSignature returns the image bytes of a base64 signature, with or without a data URL prefix.
func DecodeSignature(data string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(dataURLPrefix.ReplaceAllString(data, ""))
	if err != nil || len(b) == 0 {
		return nil, apperr.Validation("서명 데이터가 올바르지 않습니다.")
	}
	return b, nil
}

// SignContract records the creator's signature on a sent contract.
func SignContract() *handlers.Handler {
	return &handlers.Handler{
		Name:    "sign-contract",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req signRequest
			if err := call.Bind(&req, "필수 정보가 누락되었습니다."); err != nil {
				return nil, err
			}
			ctx := call.Context()
			now := call.Now()

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			var c contract
			err = storage.Get(ctx, db, ContractsTable, storage.Select().Where(storage.Eq("id", req.ContractID)), &c)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.NotFound("계약서를 찾을 수 없습니다.")
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load contract %s: %w", req.ContractID, err)
			}
			if c.Status != StatusSent {
				return nil, apperr.Validation("서명할 수 없는 계약서입니다.")
			}
			if c.Expired(now) {
				apperr.BestEffort(call.Log, "mark contract expired", func() error {
					_, err := db.Update(ctx, ContractsTable, storage.Row{"status": StatusExpired}, storage.Eq("id", c.ID))
					return err
				})
				return nil, apperr.Validation("계약서가 만료되었습니다.")
			}

			signatureURL := req.SignatureData
			if req.SignatureType == SignatureDraw || req.SignatureType == SignatureImage {
				img, err := DecodeSignature(req.SignatureData)
				if err != nil {
					return nil, err
				}
				path := fmt.Sprintf("signatures/%s_%d.png", c.ID, now.UnixMilli())
				if err := db.Upload(ctx, SignatureBucket, path, "image/png", img); err != nil {
					return nil, apperr.Backend("", "서명 이미지 업로드에 실패했습니다.", err)
				}
				signatureURL = db.PublicURL(SignatureBucket, path)
			}

			signedAt := now.UTC().Format(time.RFC3339)
			rows, err := db.Update(ctx, ContractsTable, storage.Row{
				"status":                StatusSigned,
				"creator_signature_url": signatureURL,
				"signature_type":        req.SignatureType,
				"signed_at":             signedAt,
			}, storage.Eq("id", c.ID), storage.Eq("status", StatusSent))
			if err != nil {
				return nil, apperr.Backend("", "계약서 업데이트에 실패했습니다.", err)
			}
			if len(rows) == 0 {
				return nil, apperr.Conflict("서명할 수 없는 계약서입니다.")
			}

			apperr.BestEffort(call.Log, "signature log", func() error {
				_, err := db.Insert(ctx, SignatureLogsTable, storage.Row{
					"contract_id":    c.ID,
					"signer_type":    "creator",
					"signer_id":      c.CreatorID,
					"signature_url":  signatureURL,
					"signature_type": req.SignatureType,
					"ip_address":     req.IPAddress,
					"user_agent":     req.UserAgent,
				})
				return err
			})

			call.Log.Info("contract signed", zap.String("contract_id", c.ID), zap.String("signature_type", req.SignatureType))
			return handlers.OK(handlers.M{
				"message":  "계약서 서명이 완료되었습니다.",
				"contract": handlers.M{"id": c.ID, "signedAt": signedAt},
			}), nil
		},
	}
}
