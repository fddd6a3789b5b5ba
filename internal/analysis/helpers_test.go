package analysis

import (
	"math"
	"time"

	"github.com/KaramelBytes/csvlens/internal/dataset"
)

func intCol(name string, vals ...int64) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.KindNumeric, DType: dataset.DTypeInt64}
	for _, v := range vals {
		c.Values = append(c.Values, dataset.Integer(v))
	}
	return c
}

// floatCol treats NaN as missing.
func floatCol(name string, vals ...float64) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.KindNumeric, DType: dataset.DTypeFloat64}
	for _, v := range vals {
		c.Values = append(c.Values, dataset.Float(v))
	}
	return c
}

// textCol treats the empty string as missing.
func textCol(name string, vals ...string) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.KindText, DType: dataset.DTypeObject}
	for _, v := range vals {
		if v == "" {
			c.Values = append(c.Values, dataset.Missing())
			continue
		}
		c.Values = append(c.Values, dataset.Text(v))
	}
	return c
}

func timeCol(name string, vals ...string) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.KindDatetime, DType: dataset.DTypeDatetime}
	for _, v := range vals {
		if v == "" {
			c.Values = append(c.Values, dataset.Missing())
			continue
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			panic(err)
		}
		c.Values = append(c.Values, dataset.Timestamp(t))
	}
	return c
}

var nan = math.NaN()
