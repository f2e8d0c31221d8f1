package types

type Side string

type Direction string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"

	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)
