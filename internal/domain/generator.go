package domain

import "strings"

// Generator — закрытое перечисление инструментов, которыми сгенерировано изображение.
type Generator string

const (
	GeneratorMidjourney        Generator = "MIDJOURNEY"
	GeneratorDalle3            Generator = "DALLE_3"
	GeneratorDalle             Generator = "DALLE"
	GeneratorStableDiffusionXL Generator = "STABLE_DIFFUSION_XL"
	GeneratorStableDiffusion   Generator = "STABLE_DIFFUSION"
	GeneratorFluxPro           Generator = "FLUX_PRO"
	GeneratorFluxSchnell       Generator = "FLUX_SCHNELL"
	GeneratorFlux              Generator = "FLUX"
	GeneratorIdeogram          Generator = "IDEOGRAM"
	GeneratorImagen3           Generator = "IMAGEN_3"
	GeneratorRecraftV3         Generator = "RECRAFT_V3"
	GeneratorLeonardoAI        Generator = "LEONARDO_AI"
	GeneratorAdobeFirefly      Generator = "ADOBE_FIREFLY"
	GeneratorPlaygroundAI      Generator = "PLAYGROUND_AI"
	GeneratorFreepikAI         Generator = "FREEPIK_AI"
	GeneratorKreaAI            Generator = "KREA_AI"
	GeneratorChatGPT           Generator = "CHAT_GPT"
	GeneratorNanoBanana        Generator = "NANOBANANA"
)

// DefaultGenerator подставляется вместо неизвестных значений.
const DefaultGenerator = GeneratorMidjourney

// GeneratorOption — пара значение/подпись для формы загрузки.
type GeneratorOption struct {
	Value Generator `json:"value"`
	Label string    `json:"label"`
}

// GeneratorOptions перечисляет генераторы в порядке отображения.
var GeneratorOptions = []GeneratorOption{
	{GeneratorMidjourney, "Midjourney"},
	{GeneratorDalle3, "DALL·E 3"},
	{GeneratorDalle, "DALL·E"},
	{GeneratorStableDiffusionXL, "Stable Diffusion XL"},
	{GeneratorStableDiffusion, "Stable Diffusion"},
	{GeneratorFluxPro, "Flux Pro"},
	{GeneratorFluxSchnell, "Flux Schnell"},
	{GeneratorFlux, "Flux"},
	{GeneratorIdeogram, "Ideogram"},
	{GeneratorImagen3, "Imagen 3"},
	{GeneratorRecraftV3, "Recraft V3"},
	{GeneratorLeonardoAI, "Leonardo AI"},
	{GeneratorAdobeFirefly, "Adobe Firefly"},
	{GeneratorPlaygroundAI, "Playground AI"},
	{GeneratorFreepikAI, "Freepik AI"},
	{GeneratorKreaAI, "Krea AI"},
	{GeneratorChatGPT, "ChatGPT"},
	{GeneratorNanoBanana, "Nano Banana"},
}

// ParseGenerator ищет генератор по значению без учёта регистра и пробелов по краям.
func ParseGenerator(s string) (Generator, bool) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, opt := range GeneratorOptions {
		if string(opt.Value) == want {
			return opt.Value, true
		}
	}
	return "", false
}

// NormalizeGenerator сводит произвольную строку к значению перечисления.
// Неизвестные значения не отклоняются, а заменяются на DefaultGenerator;
// второй результат false сообщает вызывающему, что подстановка произошла.
func NormalizeGenerator(s string) (Generator, bool) {
	if g, ok := ParseGenerator(s); ok {
		return g, true
	}
	return DefaultGenerator, false
}

// Label возвращает человекочитаемое название генератора.
func (g Generator) Label() string {
	for _, opt := range GeneratorOptions {
		if opt.Value == g {
			return opt.Label
		}
	}
	return string(g)
}
