package dedup

import "testing"

func TestNormalizeTextDropsStopWordsAndPunctuation(t *testing.T) {
	got := NormalizeText("Танк и самолет — на полигоне!")
	want := "танк самолет полигоне"
	if got != want {
		t.Fatalf("NormalizeText = %q, want %q", got, want)
	}
}

func TestContentHashIgnoresFormatting(t *testing.T) {
	a := ContentHash("Армия провела учения на полигоне.")
	b := ContentHash("АРМИЯ   провела, учения:  на полигоне!!!")
	if a != b {
		t.Fatalf("hashes differ for same normalized content: %q vs %q", a, b)
	}

	c := ContentHash("Флот провел учения в море.")
	if a == c {
		t.Fatalf("different content produced the same hash %q", a)
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	text := "войска провели масштабные учения на южном полигоне"

	if sim := CosineSimilarity(text, text); sim < 0.999 {
		t.Fatalf("self similarity = %f, want ~1", sim)
	}
	if sim := CosineSimilarity(text, "экипаж корабля вернулся из дальнего похода"); sim > 0.3 {
		t.Fatalf("unrelated similarity = %f, want near 0", sim)
	}
	if sim := CosineSimilarity("", text); sim != 0 {
		t.Fatalf("empty text similarity = %f, want 0", sim)
	}
}

func TestJaccardWords(t *testing.T) {
	if j := JaccardWords("новые танки поступили в войска", "новые танки поступили в войска"); j < 0.999 {
		t.Fatalf("identical titles overlap = %f, want 1", j)
	}
	if j := JaccardWords("новые танки поступили в войска", "корабль вышел в море"); j > 0.2 {
		t.Fatalf("unrelated titles overlap = %f, want near 0", j)
	}
}
