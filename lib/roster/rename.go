package roster

import (
	"sort"

	"academytracker/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Matching people across scrapes by profile url is not airtight: a site
// can reassign urls, in which case one real-world member shows up as a
// removed+added pair. The rename scan flags such pairs by name
// similarity so a reviewer can judge them, without altering the
// added/removed classification itself.

// renameThreshold is the Jaro-Winkler similarity above which a
// removed/added name pair is worth flagging.
const renameThreshold = 0.93

// RenameSuspicion pairs a removed record with an added record whose
// names are close enough to plausibly be the same member.
type RenameSuspicion struct {
	RemovedKey string
	AddedKey   string
	Name       string
	Similarity float64
}

func scanRenames(removed, added []Record) []RenameSuspicion {
	if len(removed) == 0 || len(added) == 0 {
		return nil
	}

	matchedAdded := make(map[string]bool)
	var result []RenameSuspicion

	for _, gone := range removed {
		goneName := textutil.NormalizeKey(gone["name"])
		if goneName == "" {
			continue
		}

		var mostSimilarity float64
		var mostSimilar Record

		for _, incoming := range added {
			if matchedAdded[incoming.Key()] {
				continue
			}
			incomingName := textutil.NormalizeKey(incoming["name"])
			if incomingName == "" {
				continue
			}

			similarity := matchr.JaroWinkler(goneName, incomingName, false)
			if similarity > mostSimilarity {
				mostSimilarity = similarity
				mostSimilar = incoming
			}
		}

		if mostSimilarity >= renameThreshold {
			result = append(result, RenameSuspicion{
				RemovedKey: gone.Key(),
				AddedKey:   mostSimilar.Key(),
				Name:       gone["name"],
				Similarity: mostSimilarity,
			})
			matchedAdded[mostSimilar.Key()] = true
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RemovedKey < result[j].RemovedKey
	})
	return result
}
