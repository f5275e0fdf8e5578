package model

// EventKind 드로잉 이벤트 변형 구분자
type EventKind string

const (
	KindStroke     EventKind = "stroke"
	KindText       EventKind = "text"
	KindShape      EventKind = "shape"
	KindImage      EventKind = "image"
	KindBackground EventKind = "background"
)

func (k EventKind) String() string {
	return string(k)
}
