package report

import "github.com/matzehuels/dcmdict/pkg/dictionary"

var (
	attrSOPClassUID = dictionary.Attribute{
		Tag: dictionary.Tag{Group: "0008", Element: "0016"}, Name: "SOP Class UID", Keyword: "SOPClassUID", VR: "UI", VM: "MIN_1_MAX_1",
	}
	attrSharedFG = dictionary.Attribute{
		Tag: dictionary.SharedFunctionalGroupsSequence, Name: "Shared Functional Groups Sequence", Keyword: "SharedFunctionalGroupsSequence", VR: "SQ", VM: "MIN_1_MAX_1",
	}
	attrPixelMeasures = dictionary.Attribute{
		Tag: dictionary.Tag{Group: "0028", Element: "9110"}, Name: "Pixel Measures Sequence", Keyword: "PixelMeasuresSequence", VR: "SQ", VM: "MIN_1_MAX_1",
	}
	attrSliceThickness = dictionary.Attribute{
		Tag: dictionary.Tag{Group: "0018", Element: "0050"}, Name: "Slice Thickness", Keyword: "SliceThickness", VR: "DS", VM: "MIN_1_MAX_1",
	}
	attrContentSeq = dictionary.Attribute{
		Tag: dictionary.Tag{Group: "0040", Element: "A730"}, Name: "Content Sequence", Keyword: "ContentSequence", VR: "SQ", VM: "MIN_1_MAX_1",
	}
)

// sampleSop builds a CT SOP class whose IOD has a plain module, a
// functional groups module, a self-including content module and one
// functional group macro.
func sampleSop() dictionary.Sop {
	common := &dictionary.Module{
		ID: "sect_C.12.1", Name: "SOP Common Module", Keyword: "SOPCommonModule",
		Elements: []*dictionary.AttributeElement{
			{Attribute: attrSOPClassUID, Type: "1", Description: "Uniquely identifies the SOP Class.", Origin: "table_C.12-1"},
		},
	}
	multiframe := &dictionary.Module{
		ID: "sect_C.7.6.16", Name: "Multi-frame Functional Groups Module", Keyword: "MultiFrameFunctionalGroupsModule",
		Elements: []*dictionary.AttributeElement{
			{Attribute: attrSharedFG, Type: "1", Origin: "table_C.7.6.16-1"},
		},
	}

	content := &dictionary.AttributeElement{Attribute: attrContentSeq, Type: "1C", Origin: "table_C.17-6"}
	content.Children = []*dictionary.AttributeElement{content}
	sr := &dictionary.Module{
		ID: "sect_C.17.3", Name: "SR Document Content Module", Keyword: "SRDocumentContentModule",
		Elements: []*dictionary.AttributeElement{content},
	}

	measures := &dictionary.Module{
		ID: "sect_C.7.6.16.2.1", Name: "Pixel Measures Macro", Keyword: "PixelMeasuresMacro",
		Elements: []*dictionary.AttributeElement{
			{
				Attribute: attrPixelMeasures, Type: "1", Origin: "table_C.7.6.16-2",
				Children: []*dictionary.AttributeElement{
					{Attribute: attrSliceThickness, Type: "1C", Origin: "table_C.7.6.16-2"},
				},
			},
		},
	}

	iod := &dictionary.Iod{
		ID: "sect_A.38.1", Name: "Enhanced CT Image IOD", Keyword: "EnhancedCTImageIOD",
		Modules: []dictionary.ModuleElement{
			{Module: common, Usage: dictionary.UsageMandatory},
			{Module: multiframe, Usage: dictionary.UsageMandatory},
			{Module: sr, Usage: dictionary.UsageConditional, Condition: "Required if content is present"},
		},
		FunctionalGroups: []dictionary.ModuleElement{
			{Module: measures, Usage: dictionary.UsageMandatory},
		},
	}
	return dictionary.Sop{
		Uid: dictionary.Uid{Value: "1.2.840.10008.5.1.4.1.1.2.1", Name: "Enhanced CT Image Storage", Keyword: "EnhancedCTImageStorage", Type: "SOP Class"},
		Iod: iod,
	}
}

func sampleFiltered() *dictionary.Filtered {
	return dictionary.Filter([]dictionary.Sop{sampleSop()})
}
