package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurate_FiltersAndOrders(t *testing.T) {
	catalog := []string{
		"Qwen2.5-7B",
		"DeepSeek-V3.1",
		"Kimi-K2-Instruct-Pro",
		"moonshotai/Kimi-K2-Instruct",
		"Qwen3-8B",
		"MiniMax-M1",
	}

	curated := Curate(catalog)

	assert.Equal(t, []string{
		"DeepSeek-V3.1",
		"moonshotai/Kimi-K2-Instruct",
		"Qwen3-8B",
		"MiniMax-M1",
	}, curated)
}

func TestCurate_Idempotent(t *testing.T) {
	catalog := []string{
		"deepseek-ai/DeepSeek-V3.1",
		"moonshotai/Kimi-K2-Instruct",
		"Qwen3-32B",
		"MiniMaxAI/MiniMax-M1-80k",
	}

	once := Curate(catalog)
	twice := Curate(once)

	assert.Equal(t, once, twice)
}

func TestCurate_DropsUnknownVendors(t *testing.T) {
	curated := Curate([]string{"meta-llama/Llama-3-8B", "mistralai/Mistral-7B"})
	assert.Empty(t, curated)
}

func TestCurate_VendorPriorityBeatsCatalogOrder(t *testing.T) {
	curated := Curate([]string{"MiniMax-M1", "Qwen3-8B", "Kimi-Dev-72B", "deepseek-ai/DeepSeek-R1"})
	assert.Equal(t, []string{"deepseek-ai/DeepSeek-R1", "Kimi-Dev-72B", "Qwen3-8B", "MiniMax-M1"}, curated)
}

func TestSelectDefault_PrefersKimiK2(t *testing.T) {
	curated := []string{
		"DeepSeek-V3.1",
		"moonshotai/Kimi-K2-Instruct",
		"Qwen3-8B",
		"MiniMax-M1",
	}

	assert.Equal(t, "moonshotai/Kimi-K2-Instruct", SelectDefault(curated))
}

func TestSelectDefault_FallsBackToDeepSeekThenFirst(t *testing.T) {
	assert.Equal(t, "deepseek-ai/DeepSeek-V3.1",
		SelectDefault([]string{"Qwen3-8B", "deepseek-ai/DeepSeek-V3.1"}))

	assert.Equal(t, "Qwen3-8B", SelectDefault([]string{"Qwen3-8B", "MiniMax-M1"}))
}

func TestSelectDefault_EmptyUsesHardcodedFallback(t *testing.T) {
	assert.Equal(t, FallbackModel, SelectDefault(nil))
}

func TestRecommended_OnlyListsPresentPreferences(t *testing.T) {
	curated := []string{"moonshotai/Kimi-K2-Instruct", "Qwen3-8B"}
	assert.Equal(t, []string{"moonshotai/Kimi-K2-Instruct"}, Recommended(curated))
}
