package controllers

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/index"
	pkgerrors "github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/metrics"
)

// observeTx records one contract call against the chain metrics, folding
// revert reasons into their own counter.
func observeTx(met *metrics.ChainMetrics, contract, method string, start time.Time, err error) {
	if met == nil {
		return
	}
	met.ObserveDuration(contract, method, time.Since(start))
	if err == nil {
		met.IncSuccess(contract, method)
		return
	}
	if rev := chain.AsRevert(err); rev != nil {
		met.IncRevert(contract, method, rev.Name)
	}
}

// project folds a confirmed receipt into the read model. The transaction
// already succeeded on chain, so a projection failure is logged and the
// caller still gets its success response.
func project(ctx context.Context, svc *index.Service, logg *logger.Logger, receipt *chain.Receipt) {
	if svc == nil || receipt == nil {
		return
	}
	if err := svc.ApplyReceipt(ctx, receipt); err != nil && logg != nil {
		logg.Error(logg.WithTxHash(ctx, receipt.TxHash.Hex()), "projection failed", err)
	}
}

// parseWei reads a base-10 wei amount from a request field.
func parseWei(raw, field string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a base-10 wei string").WithDetails(map[string]any{"field": field})
	}
	if value.Sign() < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}
