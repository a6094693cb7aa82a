package assistant

import "testing"

func TestExtractLeadSlots(t *testing.T) {
	tests := []struct {
		name string
		text string
		want LeadSlots
	}{
		{
			name: "full name company email",
			text: "create lead for Jane Doe at Acme Corp, email jane@acme.com",
			want: LeadSlots{FirstName: "Jane", LastName: "Doe", Company: "Acme Corp", Email: "jane@acme.com"},
		},
		{
			name: "company followed by trailing clause",
			text: "create lead for Jane Doe at Acme with email jane@acme.com",
			want: LeadSlots{FirstName: "Jane", LastName: "Doe", Company: "Acme", Email: "jane@acme.com"},
		},
		{
			name: "single word name",
			text: "new lead named Smith from Initech",
			want: LeadSlots{LastName: "Smith", Company: "Initech"},
		},
		{
			name: "no name",
			text: "create a lead at Globex please",
			want: LeadSlots{LastName: DefaultLeadLastName, Company: "Globex", NameDefaulted: true},
		},
		{
			name: "no company",
			text: "create lead for Bob Jones",
			want: LeadSlots{FirstName: "Bob", LastName: "Jones", Company: DefaultLeadCompany, CompanyDefaulted: true},
		},
		{
			name: "nothing extractable",
			text: "create lead",
			want: LeadSlots{LastName: DefaultLeadLastName, Company: DefaultLeadCompany, NameDefaulted: true, CompanyDefaulted: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLeadSlots(tt.text)
			if got != tt.want {
				t.Errorf("ExtractLeadSlots(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
