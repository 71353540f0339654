package provider

import "context"

// Client 面向单轮文本生成的模型客户端接口
// Client is the model backend interface for single-turn text generation.
type Client interface {
	// Generate 发送提示词并返回生成文本；空串表示模型无输出
	// Generate sends a prompt and returns the generated text; an empty
	// string means the model produced no output.
	Generate(ctx context.Context, prompt string) (string, error)

	// CurrentModel 返回当前活跃模型
	// CurrentModel returns the current active model.
	CurrentModel() string
}
