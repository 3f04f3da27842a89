package handlers

import "fmt"

// validateStreamId は配信IDのバリデーションを行います
// 配信IDが空の場合はエラーを返します
func validateStreamId(streamId string) error {
	if normalizeID(streamId) == "" {
		return fmt.Errorf("streamId required")
	}
	return nil
}

// validateRequired は必須の文字列フィールドのバリデーションを行います
func validateRequired(name, value string) error {
	if normalizeID(value) == "" {
		return fmt.Errorf("%s required", name)
	}
	return nil
}
