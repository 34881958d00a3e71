package app

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want topic
	}{
		{"What about fire safety?", topicFire},
		{"Yêu cầu về phòng cháy", topicFire},
		{"Cường độ bê tông tối thiểu?", topicConcrete},
		{"CONCRETE grade", topicConcrete},
		{"soil investigation depth", topicFoundation},
		{"Thiết kế móng nhà", topicFoundation},
		{"Xin GIẤY PHÉP xây dựng", topicPermit},
		{"business license", topicPermit},
		{"fire permit for concrete", topicFire},
		{"hello there", topicDefault},
		{"", topicDefault},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := classify(tt.text); got != tt.want {
				t.Fatalf("classify(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCatalogReplies(t *testing.T) {
	if got := generalCatalog.reply("What about fire safety?"); got != generalCatalog[topicFire] {
		t.Fatalf("expected general fire answer, got %q", got)
	}
	if got := generalCatalog.reply("nothing relevant"); got != generalCatalog[topicDefault] {
		t.Fatalf("expected general default answer")
	}
	if got := documentCatalog.reply("fire rating?"); got != documentCatalog[topicFire] || got == generalCatalog[topicFire] {
		t.Fatalf("document fire answer should be document specific")
	}
	if got := documentCatalog.reply("foundation depth"); got != generalCatalog[topicFoundation] {
		t.Fatalf("document foundation answer should fall back to the general one")
	}
	if got := documentCatalog.reply("permit timeline"); got != generalCatalog[topicPermit] {
		t.Fatalf("document permit answer should fall back to the general one")
	}
	if got := documentCatalog.reply("summarize"); got != documentCatalog[topicDefault] {
		t.Fatalf("expected document default answer")
	}
}
