package utils

import (
	"encoding/binary"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// 事件类型前缀
const (
	EventTypeTxOutcome  uint32 = 1 // 单笔交易结果
	EventTypeJobSummary uint32 = 2 // 任务汇总
)

const eventPrefixLen = 4

// EncodeEvent 将 protobuf 消息编码为带事件类型前缀的二进制数据：
// 前 4 字节为事件类型（uint32 小端序），后续为确定性序列化的 protobuf 数据
func EncodeEvent(eventType uint32, msg proto.Message) ([]byte, error) {
	buf := make([]byte, eventPrefixLen, eventPrefixLen+proto.Size(msg)+32)
	binary.LittleEndian.PutUint32(buf, eventType)

	opts := proto.MarshalOptions{Deterministic: true}
	out, err := opts.MarshalAppend(buf, msg)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: marshal %T: %w", msg, err)
	}
	return out, nil
}

// DecodeEvent 拆出事件类型并反序列化到 msg
func DecodeEvent(data []byte, msg proto.Message) (uint32, error) {
	if len(data) < eventPrefixLen {
		return 0, errors.New("DecodeEvent: data too short")
	}
	eventType := binary.LittleEndian.Uint32(data[:eventPrefixLen])
	if err := proto.Unmarshal(data[eventPrefixLen:], msg); err != nil {
		return eventType, fmt.Errorf("DecodeEvent: unmarshal %T: %w", msg, err)
	}
	return eventType, nil
}
