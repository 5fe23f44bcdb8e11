package domain

// Префиксы ключей в бакете: оригиналы и миниатюры лежат под одним именем файла.
const (
	OriginalPrefix  = "prompts/"
	ThumbnailPrefix = "thumbnails/"
)

// ObjectFileName строит базовое имя объекта: <id>.<ext>
func ObjectFileName(id, ext string) string {
	return id + "." + ext
}

// OriginalKey возвращает ключ оригинала: prompts/<fileName>
func OriginalKey(fileName string) string {
	return OriginalPrefix + fileName
}

// ThumbnailKey возвращает ключ миниатюры: thumbnails/<fileName>
func ThumbnailKey(fileName string) string {
	return ThumbnailPrefix + fileName
}
