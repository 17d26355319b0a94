package qual

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

func Signed[T Number](v T) T            { return v }
func Unsigned[T Integer](v T) T         { return v }
func UnknownSignedness[T Number](v T) T { return v }
func ConstantPositive[T Integer](v T) T { return v }
func Literal[T Number](v T) T           { return v }
