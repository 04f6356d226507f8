package domain

import "testing"

func TestTopicByCode(t *testing.T) {
	slot, ok := TopicByCode("EC1")
	if !ok {
		t.Fatalf("ожидали найти топик EC1")
	}
	if slot.Domain != DomainEconomy || !slot.Core {
		t.Fatalf("EC1 должен быть представительским слотом экономики, получили %+v", slot)
	}
	if _, ok := TopicByCode("XX9"); ok {
		t.Fatalf("неизвестный код не должен находиться")
	}
}

func TestCoreTopicCodes(t *testing.T) {
	codes := CoreTopicCodes()
	if len(codes) != 6 {
		t.Fatalf("ожидали шесть представительских слотов, получили %d", len(codes))
	}
	seen := map[TopicDomain]bool{}
	for _, code := range codes {
		slot, ok := TopicByCode(code)
		if !ok {
			t.Fatalf("код %s отсутствует в реестре", code)
		}
		if seen[slot.Domain] {
			t.Fatalf("область %s встречается дважды", slot.Domain)
		}
		seen[slot.Domain] = true
	}
}

func TestAllTopicSlotsCopy(t *testing.T) {
	slots := AllTopicSlots()
	if len(slots) != 12 {
		t.Fatalf("ожидали двенадцать слотов, получили %d", len(slots))
	}
	slots[0].Code = "ZZ1"
	if _, ok := TopicByCode("ZZ1"); ok {
		t.Fatalf("правка копии не должна менять реестр")
	}
}

func TestNormalizeStance(t *testing.T) {
	cases := map[string]Stance{
		"yes": StanceYes,
		"A":   StanceYes,
		" a ": StanceYes,
		"no":  StanceNo,
		"B":   StanceNo,
	}
	for raw, want := range cases {
		got, ok := NormalizeStance(raw)
		if !ok || got != want {
			t.Fatalf("NormalizeStance(%q) = %q, %v; ожидали %q", raw, got, ok, want)
		}
	}
	if _, ok := NormalizeStance("maybe"); ok {
		t.Fatalf("недопустимая позиция не должна нормализоваться")
	}
}
