package query

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

func sampleDevices() []catalog.DeviceRecord {
	return []catalog.DeviceRecord{
		{Name: "iPhone 15", Key: "iPhone15,4", Category: catalog.CategoryiPhone},
		{Name: "iPad Pro", Key: "iPad16,3", Category: catalog.CategoryiPadPro},
		{Name: "iPhone 15 Pro", Key: "iPhone16,1", Category: catalog.CategoryiPhone},
		{Name: "Developer Transition Kit", Key: "ADP3,2", Category: catalog.Uncategorized},
		{Name: "ÉCRAN Studio", Key: "display1", Category: catalog.CategoryStudioDisplay},
	}
}

func names(records []catalog.DeviceRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestCollection_Search(t *testing.T) {
	c := NewCollection[catalog.DeviceRecord]()
	c.Replace(sampleDevices())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty returns everything", query: "", want: names(sampleDevices())},
		{name: "blank returns everything", query: "   ", want: names(sampleDevices())},
		{name: "case insensitive", query: "iphone", want: []string{"iPhone 15", "iPhone 15 Pro"}},
		{name: "substring", query: "PRO", want: []string{"iPad Pro", "iPhone 15 Pro"}},
		{name: "unicode folding", query: "écran", want: []string{"ÉCRAN Studio"}},
		{name: "no match", query: "Newton", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(c.Search(tt.query)))
		})
	}
}

func TestCollection_SearchTwoEntries(t *testing.T) {
	c := NewCollection[catalog.DeviceRecord]()
	c.Replace([]catalog.DeviceRecord{
		{Name: "iPhone 15", Key: "a", Category: catalog.CategoryiPhone},
		{Name: "iPad Pro", Key: "b", Category: catalog.CategoryiPadPro},
	})

	got := c.Search("iphone")
	require.Len(t, got, 1)
	assert.Equal(t, "iPhone 15", got[0].Name)
	assert.Len(t, c.Search(""), c.Len())
}

func TestCollection_Filter(t *testing.T) {
	c := NewCollection[catalog.DeviceRecord]()
	c.Replace(sampleDevices())

	assert.Equal(t, []string{"iPhone 15", "iPhone 15 Pro"}, names(c.Filter(string(catalog.CategoryiPhone))))
	assert.Equal(t, []string{"Developer Transition Kit"}, names(c.Filter(string(catalog.Uncategorized))))
	assert.Len(t, c.Filter(""), 5)
	assert.Empty(t, c.Filter(string(catalog.CategoryAirTag)))
}

func TestCollection_QueryIntersection(t *testing.T) {
	c := NewCollection[catalog.DeviceRecord]()
	c.Replace(sampleDevices())

	got := c.Query(Criteria{Text: "pro", Group: string(catalog.CategoryiPhone)})
	assert.Equal(t, []string{"iPhone 15 Pro"}, names(got))

	assert.Empty(t, c.Query(Criteria{Text: "ipad", Group: string(catalog.CategoryiPhone)}))
}

func TestCollection_Groups(t *testing.T) {
	c := NewCollection[catalog.DeviceRecord]()
	c.Replace(sampleDevices())

	assert.Equal(t, []string{"iPhone", "iPad Pro", "Uncategorized", "Studio Display"}, c.Groups())
}

func TestCollection_ReplaceNotifiesAndIsolates(t *testing.T) {
	c := NewCollection[catalog.DeviceRecord]()

	var got [][]catalog.DeviceRecord
	unsubscribe := c.Subscribe(func(items []catalog.DeviceRecord) {
		got = append(got, items)
	})

	src := sampleDevices()
	c.Replace(src)
	src[0].Name = "mutated"
	assert.Equal(t, "iPhone 15", c.All()[0].Name, "collection must not alias the caller's slice")

	c.Replace(nil)
	unsubscribe()
	c.Replace(sampleDevices())

	require.Len(t, got, 2)
	assert.Len(t, got[0], 5)
	assert.Empty(t, got[1])
	assert.Equal(t, 5, c.Len())
}

func TestCollection_ConcurrentReaders(t *testing.T) {
	c := NewCollection[catalog.DeviceRecord]()
	c.Replace(sampleDevices())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := len(c.Search("iphone"))
				if n != 0 && n != 2 {
					t.Errorf("torn snapshot: %d results", n)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if j%2 == 0 {
					c.Replace(sampleDevices())
				} else {
					c.Replace(nil)
				}
			}
		}()
	}
	wg.Wait()
}
