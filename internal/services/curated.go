package services

// CuratedTopics are high-yield topics that return many image-rich events.
// Batch ingestion uses them when the request names no topics.
var CuratedTopics = []string{
	// Wars & Battles
	"World War I", "World War II", "Napoleonic Wars", "American Civil War",
	"Hundred Years' War", "Crusades", "Seven Years' War", "Korean War",
	"Vietnam War", "Punic Wars", "Thirty Years' War", "War of 1812",
	// Empires & Civilizations
	"Roman Empire", "Byzantine Empire", "Ottoman Empire", "Mongol Empire",
	"British Empire", "Han Dynasty", "Tang Dynasty", "Ming Dynasty",
	"Qing Dynasty", "Mughal Empire", "Persian Empire", "Inca Empire",
	"Aztec Empire", "Ancient Egypt", "Ancient Greece",
	// Exploration & Space
	"Age of Discovery", "Apollo program", "Space Shuttle program",
	"International Space Station",
	// Revolutions & Politics
	"French Revolution", "Russian Revolution", "American Revolution",
	"Industrial Revolution", "Chinese Revolution",
	// Science & Technology
	"Manhattan Project", "History of computing", "History of aviation",
	// Culture & Religion
	"Renaissance", "Protestant Reformation", "Silk Road",
	// Natural Disasters
	"2011 Tōhoku earthquake", "1906 San Francisco earthquake",
	"2004 Indian Ocean earthquake", "Vesuvius",
}
