package remote

import (
	"fmt"
	"time"

	"github.com/nicobailon/remotegrid/internal/data"
)

// Demo provider names.
const (
	DemoOrders    = "orders"
	DemoCustomers = "customers"
)

var demoCities = []string{"Vienna", "Graz", "Linz", "Salzburg", "Innsbruck"}

var demoProducts = []string{"Keyboard", "Monitor", "Mouse", "Docking station", "Headset", "Webcam"}

// CustomersMetaData describes the customer lookup table.
func CustomersMetaData() data.MetaData {
	return data.MetaData{
		DataProvider: DemoCustomers,
		PrimaryKeys:  []string{"ID"},
		Columns: []data.ColumnMetaData{
			{Name: "ID", EditorKind: data.EditorNumber, Readonly: true, Sortable: true, Resizable: true},
			{Name: "NAME", Label: "Name", EditorKind: data.EditorText, Sortable: true, Resizable: true, Movable: true},
			{Name: "CITY", Label: "City", EditorKind: data.EditorText, Nullable: true, Sortable: true, Resizable: true, Movable: true},
		},
		InsertEnabled: true,
		DeleteEnabled: true,
	}
}

// OrdersMetaData describes an order table with one column per editor kind.
func OrdersMetaData() data.MetaData {
	return data.MetaData{
		DataProvider: DemoOrders,
		PrimaryKeys:  []string{"ID"},
		Columns: []data.ColumnMetaData{
			{Name: "ID", EditorKind: data.EditorNumber, Readonly: true, Sortable: true, Resizable: true},
			{Name: "PRODUCT", Label: "Product", EditorKind: data.EditorText, Nullable: true, Sortable: true, Resizable: true, Movable: true},
			{Name: "QUANTITY", Label: "Qty", EditorKind: data.EditorNumber, Nullable: true, Sortable: true, Resizable: true, Movable: true},
			{Name: "ORDERED", Label: "Ordered", EditorKind: data.EditorDate, Nullable: true, Sortable: true, Resizable: true, Movable: true},
			{
				Name: "STATUS", Label: "Status", EditorKind: data.EditorChoice, Nullable: true, Sortable: true, Resizable: true, Movable: true,
				Editor: data.EditorConfig{AllowedValues: []any{"open", "packed", "shipped"}},
			},
			{
				Name: "PAID", Label: "Paid", EditorKind: data.EditorCheckBox, Sortable: true, Resizable: true, Movable: true,
				Editor: data.EditorConfig{SelectedValue: "Y", DeselectedValue: "N"},
			},
			{
				Name: "CUSTOMER_NAME", Label: "Customer", EditorKind: data.EditorLinked, Nullable: true, Sortable: true, Resizable: true, Movable: true,
				Editor: data.EditorConfig{Link: &data.LinkReference{
					DataProvider:      DemoCustomers,
					ColumnNames:       []string{"CUSTOMER_ID", "CUSTOMER_NAME"},
					ReferencedColumns: []string{"ID", "NAME"},
					DisplayColumn:     "NAME",
				}},
			},
			{Name: "CUSTOMER_ID", Label: "Cust#", EditorKind: data.EditorNumber, Nullable: true, Readonly: true, Sortable: true, Resizable: true},
			{Name: "PHOTO", Label: "Photo", EditorKind: data.EditorImage, Nullable: true, Resizable: true},
		},
		InsertEnabled: true,
		DeleteEnabled: true,
	}
}

// DemoCustomerRecords returns n customers named "Customer 1".."Customer n".
func DemoCustomerRecords(n int) []data.Record {
	out := make([]data.Record, n)
	for i := range out {
		out[i] = data.NewRecord(map[string]any{
			"ID":   int64(i + 1),
			"NAME": fmt.Sprintf("Customer %d", i+1),
			"CITY": demoCities[i%len(demoCities)],
		})
	}
	return out
}

// DemoOrderRecords returns n deterministic orders referencing customers.
func DemoOrderRecords(n, customers int) []data.Record {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	statuses := []string{"open", "packed", "shipped"}
	out := make([]data.Record, n)
	for i := range out {
		cust := i%customers + 1
		paid := "N"
		if i%3 == 0 {
			paid = "Y"
		}
		out[i] = data.NewRecord(map[string]any{
			"ID":            int64(i + 1),
			"PRODUCT":       demoProducts[i%len(demoProducts)],
			"QUANTITY":      int64(i%7 + 1),
			"ORDERED":       base.AddDate(0, 0, i),
			"STATUS":        statuses[i%len(statuses)],
			"PAID":          paid,
			"CUSTOMER_ID":   int64(cust),
			"CUSTOMER_NAME": fmt.Sprintf("Customer %d", cust),
			"PHOTO":         nil,
		})
	}
	return out
}

// NewDemoSource builds a MemorySource holding the demo orders and customers.
func NewDemoSource(orders int, opts ...MemoryOption) *MemorySource {
	const customers = 25
	m := NewMemorySource(opts...)
	m.AddTable(CustomersMetaData(), DemoCustomerRecords(customers))
	m.AddTable(OrdersMetaData(), DemoOrderRecords(orders, customers))
	return m
}
