package redis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// dataField 是 stream 訊息中存放 msgpack(base64) 內容的欄位
const dataField = "data"

var (
	ErrPointerType = errors.New("pointer type is not allowed")
)

func isPointer(t reflect.Type) bool {
	return t == nil || t.Kind() == reflect.Ptr
}

// DefaultParseToMessage 將事件編碼成 XADD 的欄位: {"data": base64(msgpack(event))}
func DefaultParseToMessage[T any](data T) (map[string]any, error) {
	if isPointer(reflect.TypeOf(data)) {
		return nil, ErrPointerType
	}
	packed, err := msgpack.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}
	return map[string]any{dataField: base64.StdEncoding.EncodeToString(packed)}, nil
}

// DefaultParseFromMessage 解回 DefaultParseToMessage 產生的欄位
func DefaultParseFromMessage[T any](message map[string]any) (T, error) {
	var result T
	if isPointer(reflect.TypeOf(result)) {
		return result, ErrPointerType
	}

	encoded, ok := message[dataField].(string)
	if !ok {
		return result, fmt.Errorf("%s field not found or invalid type", dataField)
	}
	packed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return result, fmt.Errorf("base64 decode error: %w", err)
	}
	if err := msgpack.Unmarshal(packed, &result); err != nil {
		return result, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return result, nil
}
