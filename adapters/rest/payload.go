package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"confbid/bidding"
)

// flexID 接受數字或數字字串，null 視為 0
type flexID uint64

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", string(data), err)
	}
	*id = flexID(n)
	return nil
}

// bidPayload 是儲存端回傳的紀錄，choice 可能是任何 JSON 值
type bidPayload struct {
	ID       flexID `json:"id"`
	Reviewer flexID `json:"reviewer"`
	Article  flexID `json:"article"`
	Choice   any    `json:"choice"`
}

func (p bidPayload) toRecord() bidding.BidRecord {
	return bidding.BidRecord{
		ID:       uint64(p.ID),
		Reviewer: uint64(p.Reviewer),
		Article:  uint64(p.Article),
		Choice:   bidding.NormalizeValue(p.Choice),
	}
}

var errIncompleteRow = errors.New("missing id or article")

// decodeRow 解析單一列，id 或 article 缺少時無法對應到任何紀錄
func decodeRow(raw json.RawMessage) (bidding.BidRecord, error) {
	var p bidPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return bidding.BidRecord{}, err
	}
	if p.ID == 0 || p.Article == 0 {
		return bidding.BidRecord{}, errIncompleteRow
	}
	return p.toRecord(), nil
}

type createRequest struct {
	Reviewer uint64 `json:"reviewer"`
	Article  uint64 `json:"article"`
	Choice   string `json:"choice"`
}

type updateRequest struct {
	Choice string `json:"choice"`
}
