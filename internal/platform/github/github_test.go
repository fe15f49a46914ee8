package github

import "testing"

func TestParsePR(t *testing.T) {
	data := []byte(`{"number":42,"title":"Add widget","body":"desc","head":{"ref":"git-pr/abcd1234"},"base":{"ref":"main"},"state":"open","draft":true,"html_url":"https://github.com/acme/widgets/pull/42"}`)
	pr := parsePR(data)
	assert(t, pr.Number == 42).Errorf("Number = %d", pr.Number)
	assert(t, pr.Head == "git-pr/abcd1234").Errorf("Head = %q", pr.Head)
	assert(t, pr.Base == "main").Errorf("Base = %q", pr.Base)
	assert(t, pr.Draft).Errorf("Draft = %v, want true", pr.Draft)
}
