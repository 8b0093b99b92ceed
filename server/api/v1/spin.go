package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/server/httperr"
)

func (c *SpinHandler) Spin(w http.ResponseWriter, q *http.Request) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeSpinRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	// 請求解析完成，設置超時 context
	ctx, cancel := context.WithTimeout(q.Context(), c.timeout)
	defer cancel()

	// 開始 Spin
	result, err := c.rt.Spin(ctx, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, result)
}

// ============================================================
// ** SpinHandler **
// ============================================================

type SpinHandler struct {
	rt      *bucketlab.SlotRuntime
	timeout time.Duration
}

func NewSpinHandler(rt *bucketlab.SlotRuntime, timeout time.Duration) *SpinHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SpinHandler{rt: rt, timeout: timeout}
}
