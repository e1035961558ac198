package utility

import "github.com/shopspring/decimal"

// Tiền được lưu float64 trong document, mọi phép tính đi qua decimal rồi làm tròn 2 chữ số.

// Dec chuyển float64 sang decimal
func Dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Float trả về float64 đã làm tròn 2 chữ số
func Float(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// AddMoney cộng các khoản tiền
func AddMoney(values ...float64) float64 {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(Dec(v))
	}
	return Float(sum)
}

// SubMoney trả về a - b
func SubMoney(a, b float64) float64 {
	return Float(Dec(a).Sub(Dec(b)))
}

// MulMoney trả về price * qty
func MulMoney(price float64, qty int) float64 {
	return Float(Dec(price).Mul(decimal.NewFromInt(int64(qty))))
}

// CmpMoney so sánh a và b: -1, 0, 1
func CmpMoney(a, b float64) int {
	return Dec(a).Round(2).Cmp(Dec(b).Round(2))
}
