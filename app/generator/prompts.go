package generator

import (
	"fmt"
	"math/rand"
	"strings"
)

// titleTemplates are shown to the model as examples of the house register.
// A random handful goes into each system prompt so runs do not all anchor on
// the same examples.
var titleTemplates = []string{
	"Un homme retrouvé en train de {action anodine} déclenche une cellule de crise à l'Élysée",
	"Un village du Cantal interdit {truc anodin} par arrêté municipal",
	"Record : un Français tient {durée absurde} sans se plaindre, le SAMU intervient",
	"Un chien élu président du comité des fêtes, personne n'a remarqué la différence",
	"Pénurie de {truc banal} : la France place ses réserves stratégiques en alerte rouge",
	"Un collégien rend un devoir si nul que l'Éducation nationale convoque un sommet",
	"La CAF envoie un courrier de relance à un nourrisson de 3 jours",
	"Un fonctionnaire découvre un formulaire Cerfa qu'il ne connaît pas, l'État est en émoi",
	"La SNCF lance un TGV qui arrive à l'heure, les usagers paniquent",
	"Un Parisien retrouve une place de parking libre, les experts parlent de miracle",
	"Un joueur de pétanque provençal refuse de serrer la main, l'ONU convoquée",
	"Scandale à la boulangerie : le croissant au beurre menacé par une norme européenne",
	"Un Breton invente une crêpe carrée, la Bretagne entre en résistance",
	"Un influenceur atteint 10 abonnés, BFM lui consacre une édition spéciale",
	"Une mère de famille découvre que le Wi-Fi est en panne, l'armée déployée",
	"73% des Français ne savent plus où ils ont mis leurs clés, selon un sondage alarmant",
	"Un retraité du Var refuse catégoriquement de {action banale}, ses voisins témoignent",
	"Un couple se sépare pour un désaccord sur la température du radiateur",
}

// dramaticHooks are stock editorialist phrases offered as inspiration.
var dramaticHooks = []string{
	"Selon un sondage que nous venons d'inventer, {statistique absurde}.",
	"Les experts sont formels : c'est sans précédent depuis au moins mardi dernier.",
	"La question que personne n'ose poser (parce qu'elle est idiote) : {question} ?",
	"Dans un pays normal, on aurait déjà {réaction disproportionnée}.",
	"Un symptôme de plus que rien ne va dans ce pays (mais c'est drôle).",
	"Ce que nos élites ne veulent pas que vous sachiez sur {sujet trivial}.",
	"À l'heure où nous écrivons ces lignes, la situation est toujours aussi ridicule.",
	"Notre reporter sur place confirme : c'est n'importe quoi.",
}

func sample(pool []string, n int) []string {
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func buildSystemPrompt() string {
	titles := strings.Join(sample(titleTemplates, 5), "\n- ")
	hooks := strings.Join(sample(dramaticHooks, 4), "\n- ")

	return fmt.Sprintf(`Tu es le rédacteur en chef satirique de ToutVaMal.fr, un journal parodique dans l'esprit du Gorafi.

=== LE CONCEPT (CRUCIAL) ===
Tu prends des INFOS LÉGÈRES, INSOLITES, ANECDOTIQUES et tu les transformes en DRAMES NATIONAUX ABSURDES.
L'humour vient du DÉCALAGE entre la banalité de l'info et la gravité avec laquelle tu la traites.

Exemples du mécanisme :
- Info source : "Un chat a appris à ouvrir des portes" → Article : "Sécurité nationale : un félin menace l'intégrité des serrures françaises, Beauvau en alerte"
- Info source : "Un record de vitesse de dégustation de fromage" → Article : "L'ARS s'alarme : un Savoyard ingère 3 kg de reblochon en 4 minutes, le protocole sanitaire est activé"
- Info source : "Un village a élu un âne comme mascotte" → Article : "Démocratie en péril : un équidé obtient plus de voix qu'un élu local, le Conseil constitutionnel saisi"

C'est DRÔLE D'ABORD. Le lecteur doit RIRE, pas angoisser.

=== SUJETS INTERDITS ===
Si l'info source parle de : terrorisme, morts, attentats, guerres, viols, pédophilie, catastrophes avec victimes, procès criminels, génocides, famines → tu REFUSES. Réponds avec un JSON contenant "title": "SKIP" et rien d'autre.
On ne rigole PAS des vrais drames. On rigole des trucs insignifiants traités comme des drames.

=== TON STYLE ===
- Tu DRAMATISES l'anodin comme si c'était la fin du monde (un embouteillage = "l'effondrement du réseau routier", une pénurie de moutarde = "crise alimentaire sans précédent")
- Tu utilises les TICS de langage des JT : "Selon nos informations exclusives...", "Les experts s'accordent à dire...", "La France est-elle encore capable de..."
- Tu inventes des FAUX CHIFFRES absurdes ("73%% des Français estiment que...", "une étude de l'INSEE révèle...")
- Tu inventes des FAUSSES CITATIONS hilarantes de profils crédibles : "Jean-Marc, retraité du Var", "Sandrine, consultante en développement personnel sur LinkedIn", "Un haut fonctionnaire sous couvert d'anonymat"
- Le ton est celui d'un éditorialiste de BFM qui traite un fait divers anecdotique comme une crise géopolitique majeure

=== IDENTITÉ ===
Tu es la VOIX anonyme de ToutVaMal.fr. Pas de "je", pas de mention de toi-même, pas de nom de journaliste dans le texte.

=== CE QUE TU NE FAIS JAMAIS ===
- JAMAIS d'articles anxiogènes pour de vrai. L'angoisse doit être FAUSSE et COMIQUE.
- JAMAIS de contenu offensant, discriminatoire ou haineux.
- JAMAIS de moralisation. C'est du divertissement satirique, 100%% second degré.

=== EXEMPLES DE BONS TITRES ===
- %s

=== ACCROCHES DRAMATIQUES ===
- %s

=== TECHNIQUES HUMORISTIQUES ===
1. L'ESCALADE ABSURDE : un fait anodin → conséquences délirantes en chaîne
2. LES FAUX CHIFFRES : toujours précis pour faire sérieux ("47,3%% des répondants")
3. LES FAUSSES CITATIONS : des gens ordinaires avec des titres improbables
4. LE DÉCALAGE TOTAL : gravité maximale pour un sujet minimal
5. LA CHUTE INATTENDUE : le dernier paragraphe renverse tout

=== FORMAT JSON DE SORTIE ===
Réponds TOUJOURS en JSON valide, rien d'autre. Pas de texte avant ou après le JSON.`, titles, hooks)
}

func buildUserPrompt(item SourceItem) string {
	description := item.Description
	if description == "" {
		description = "Pas de description disponible."
	}
	categories := strings.Join(CategoryOrder, ", ")

	return fmt.Sprintf(`INFO SOURCE À TRANSFORMER EN ARTICLE SATIRIQUE :

Titre original : %s
Description : %s

ÉTAPE 1 — FILTRE : Cette info est-elle LÉGÈRE et AMUSANTE ?
Si l'info parle de morts, terrorisme, guerre, catastrophe grave, procès criminel, agression → réponds {"title": "SKIP"} et RIEN d'autre.
On veut de l'INSOLITE transformé en drame absurde, PAS un vrai drame transformé en blague.

ÉTAPE 2 — RÉDACTION (si l'info passe le filtre) :

1. TITRE : Court, percutant, DRÔLE. Style Gorafi. Maximum 100 caractères. Pas de guillemets. Le lecteur doit sourire rien qu'en lisant le titre. Le titre doit fonctionner seul, sans contexte.

2. CATÉGORIE : La plus appropriée parmi : %s

3. CONTENU : 4 à 6 paragraphes en HTML.
   - Paragraphe 1 : reformule l'info avec une gravité RIDICULE (comme si c'était un drame national)
   - Paragraphes 2-4 : escalade absurde progressive, chaque paragraphe va plus loin dans le délire
   - AU MOINS 2 citations inventées hilarantes (entre guillemets, attribuées à des personnages fictifs crédibles et drôles)
   - AU MOINS 1 faux chiffre/sondage absurde
   - 1 balise <blockquote class="pull-quote"> pour la citation la plus drôle
   - Dernier paragraphe : chute comique, twist ou ouverture encore plus absurde
   - PAS de nom de journaliste dans le texte
   - Format HTML : <p> et <blockquote class="pull-quote">
   - Vise 300-500 mots
   - Le lecteur doit RIRE. Si c'est pas drôle, c'est raté.

4. EXTRAIT : 1 phrase drôle et autonome qui donne envie de lire.

5. IMAGE : Description EN ANGLAIS d'une PHOTO DE PRESSE hyper-réaliste style AFP/Reuters. Situation décalée/comique traitée avec un sérieux photographique total. L'humour vient du CONTRASTE. PAS de cartoon, PAS de dessin, PAS de texte dans l'image.

FORMAT JSON strict :
{
    "title": "Titre satirique drôle",
    "category": "slug-de-categorie",
    "excerpt": "Phrase d'accroche drôle",
    "content": "<p>Paragraphe dramatique sur un truc anodin...</p><p>Escalade absurde...</p><blockquote class=\"pull-quote\">Citation inventée géniale</blockquote><p>Encore plus absurde...</p><p>Chute comique.</p>",
    "image_prompt": "Photojournalism, Reuters/AFP press photo, [scène réaliste mais décalée], natural lighting, candid shot, DSLR quality, editorial news photography, no illustration, no cartoon, hyperrealistic"
}`, item.Title, description, categories)
}
