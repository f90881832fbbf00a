package catalog

// courseTitles names the courses the backend only knows by id.
var courseTitles = map[string]string{
	"cmhxa9lro0000qe3ctmwl2vb2": "Discovering the Science of Emotions: What Every Parent of a Teen Should Know",
	"cmhxa9lrq0001qe3ctd3xmqo0": "Helping Teens Thrive: Emotional Intelligence for Parents",
	"cmhxa9lrq0002qe3cmeq9p72i": "Parent Wellness & Positive Role Modeling for Teens",
	"cmhxa9lrr0003qe3cbtbwhpx4": "Supporting Teen Emotional Expression: A Guide for Parents",
	"cmhxa9lrr0004qe3c8zg468x5": "Supporting Teen Emotional Expression: A Guide for Parents",
	"cmhxa9lrr0005qe3c7zdz9qnk": "Strengthening Emotional Bonds with Your Teen: A Parent's Guide",
}

const (
	AllAccessID    = "zenomi-course"
	AllAccessTitle = "Zenomi Course"
	UntitledCourse = "Untitled Course"
	ComingSoon     = "Coming soon"
)

// Title resolves a display title: the known title for id, then the
// backend's name, then a placeholder.
func Title(id, name string) string {
	if title, ok := courseTitles[id]; ok {
		return title
	}
	if name != "" {
		return name
	}
	return UntitledCourse
}
