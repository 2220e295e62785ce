package program

// TranslatedField resolves a localized field: the requested language, then French, then
// fallback. Every display path goes through this function.
func TranslatedField(field LocalizedText, lang Language, fallback string) string {
	if field == nil {
		return fallback
	}
	if v := field[lang]; v != "" {
		return v
	}
	if v := field[BaseLanguage]; v != "" {
		return v
	}
	return fallback
}

// Project resolves every localized field of p into lang.
func Project(p Data, lang Language) Projection {
	if !p.HasProgram {
		return Projection{HasProgram: false}
	}
	items := make([]ProjectedItem, 0, len(p.ProgramItems))
	for _, it := range p.ProgramItems {
		items = append(items, ProjectedItem{
			ID:          it.ID,
			Time:        it.Time,
			Title:       TranslatedField(it.Title, lang, ""),
			Description: TranslatedField(it.Description, lang, ""),
			Speaker:     TranslatedField(it.Speaker, lang, ""),
			Location:    TranslatedField(it.Location, lang, ""),
			Type:        it.Type,
			IsSession:   it.IsSession,
		})
	}
	return Projection{
		HasProgram:   true,
		UpdatedAt:    p.UpdatedAt,
		ProgramItems: items,
	}
}
